// Command jsonarc is the reference front-end for building, inspecting,
// and reading back columnar JSON archives.
package main

func main() {
	Execute()
}
