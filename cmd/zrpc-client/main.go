// Command zrpc-client calls a single method on a running zrpc server and
// prints its result, for ad-hoc testing of a deployed frontend address.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"zrpc/client"
	"zrpc/codec"
)

func main() {
	var addr string
	var useJSON bool

	cmd := &cobra.Command{
		Use:   "zrpc-client <method> [params...]",
		Short: "Call a method on a zrpc server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := client.New(addr, nil)
			if err != nil {
				return err
			}
			defer cl.Close()
			if useJSON {
				cl.Codec = codec.JSONCodec{}
			}

			method := args[0]
			params := parseParams(args[1:])

			result, err := cl.Call(method, params...)
			if err != nil {
				if callErr, ok := err.(*client.CallError); ok {
					return fmt.Errorf("%s: %s", callErr.FullType, callErr.Message)
				}
				return err
			}

			out, err := json.Marshal(result)
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&addr, "addr", "a", "tcp://127.0.0.1:5555", "server frontend address")
	flags.BoolVarP(&useJSON, "json", "j", false, "use the JSON codec instead of msgpack")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// parseParams treats each positional argument as JSON if it parses as
// such (numbers, booleans, quoted strings, arrays, objects), otherwise as
// a plain string — so `zrpc-client add 2 3` and `zrpc-client echo hello`
// both do the obvious thing.
func parseParams(args []string) []any {
	params := make([]any, len(args))
	for i, a := range args {
		var v any
		if err := json.Unmarshal([]byte(a), &v); err != nil {
			v = a
		}
		params[i] = v
	}
	return params
}
