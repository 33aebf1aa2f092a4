package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsonarc/jsonarc/archive"
	"github.com/jsonarc/jsonarc/model"
	"github.com/jsonarc/jsonarc/wire"
)

var viewCabCmd = &cobra.Command{
	Use:   "view-cab <archive>",
	Short: "Dump an archive's object structure",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openArchive(args[0])
		if err != nil {
			return err
		}
		defer r.Close()

		root, err := r.Root()
		if err != nil {
			return err
		}
		obj, err := root.Materialize()
		if err != nil {
			return err
		}

		dumpObject(obj, 0)

		return nil
	},
}

func openArchive(path string) (*archive.Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return archive.Open(data)
}

func dumpObject(o *model.Object, depth int) {
	indent := func() string {
		s := ""
		for i := 0; i < depth; i++ {
			s += "  "
		}
		return s
	}

	fmt.Printf("%sobject oid=%d\n", indent(), o.OID)
	for _, g := range o.Groups {
		fmt.Printf("%s  %s (%d properties)\n", indent(), typeName(g.Type), len(g.Keys))
		for i, v := range g.Values {
			if g.Type == wire.TypeObject {
				dumpObject(v.(*model.Object), depth+2)
				continue
			}
			if g.Type == wire.TypeObjectArray {
				oa := v.(model.ObjectArray)
				fmt.Printf("%s    [sid=%d] object-array, %d objects, %d columns\n",
					indent(), g.Keys[i], oa.ObjectCount(), len(oa.Columns))
				continue
			}
			fmt.Printf("%s    [sid=%d] %v\n", indent(), g.Keys[i], v)
		}
	}
}

func typeName(t wire.Type) string {
	names := map[wire.Type]string{
		wire.TypeNull: "null", wire.TypeBool: "bool",
		wire.TypeInt8: "int8", wire.TypeInt16: "int16", wire.TypeInt32: "int32", wire.TypeInt64: "int64",
		wire.TypeUint8: "uint8", wire.TypeUint16: "uint16", wire.TypeUint32: "uint32", wire.TypeUint64: "uint64",
		wire.TypeFloat: "float", wire.TypeString: "string", wire.TypeObject: "object",
		wire.TypeNullArray: "null[]", wire.TypeBoolArray: "bool[]",
		wire.TypeInt8Array: "int8[]", wire.TypeInt16Array: "int16[]", wire.TypeInt32Array: "int32[]", wire.TypeInt64Array: "int64[]",
		wire.TypeUint8Array: "uint8[]", wire.TypeUint16Array: "uint16[]", wire.TypeUint32Array: "uint32[]", wire.TypeUint64Array: "uint64[]",
		wire.TypeFloatArray: "float[]", wire.TypeStringArray: "string[]",
		wire.TypeObjectArray: "object[]",
	}
	if n, ok := names[t]; ok {
		return n
	}

	return "unknown"
}

func init() {
	rootCmd.AddCommand(viewCabCmd)
}
