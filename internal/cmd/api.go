package cmd

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/memorymap/internal/errors"
	"github.com/felixgeelhaar/memorymap/internal/result"
)

func newAPICmd(cc *CommandContext) *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Send an authenticated request to the backend",
		Long: `Send a request to any backend endpoint under /api. The stored access token
is attached when you are logged in. A 401 response ends the session.

The request body is a JSON document given as the second argument, or read
from standard input when the argument is "-".

Examples:
  memorymap api get /users/me/
  memorymap api post /memory-maps/ '{"title": "Lisbon"}'
  echo '{"title": "Porto"}' | memorymap api put /memory-maps/7/ -
  memorymap api delete /memory-maps/7/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	apiCmd.AddCommand(
		newAPIRequestCmd(cc, "get", false, func(ctx context.Context, endpoint string, _ any) result.Result[json.RawMessage] {
			return cc.API.Get(ctx, endpoint)
		}),
		newAPIRequestCmd(cc, "post", true, func(ctx context.Context, endpoint string, data any) result.Result[json.RawMessage] {
			return cc.API.Post(ctx, endpoint, data)
		}),
		newAPIRequestCmd(cc, "put", true, func(ctx context.Context, endpoint string, data any) result.Result[json.RawMessage] {
			return cc.API.Put(ctx, endpoint, data)
		}),
		newAPIRequestCmd(cc, "delete", false, func(ctx context.Context, endpoint string, _ any) result.Result[json.RawMessage] {
			return cc.API.Delete(ctx, endpoint)
		}),
	)
	return apiCmd
}

// requestFunc sends one request. Services are wired after the command tree
// is built, so implementations must read cc.API when called.
type requestFunc func(ctx context.Context, endpoint string, data any) result.Result[json.RawMessage]

func newAPIRequestCmd(cc *CommandContext, verb string, withBody bool, send requestFunc) *cobra.Command {
	use := verb + " <endpoint>"
	args := cobra.ExactArgs(1)
	if withBody {
		use += " [json|-]"
		args = cobra.RangeArgs(1, 2)
	}

	return &cobra.Command{
		Use:   use,
		Short: "Send a " + strings.ToUpper(verb) + " request",
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			var body any
			if len(args) == 2 {
				var err error
				if body, err = readBody(args[1], cc.in); err != nil {
					return err
				}
			}

			raw, err := send(cmd.Context(), args[0], body).Unwrap()
			if err != nil {
				return err
			}
			return cc.Output(raw)
		},
	}
}

// readBody parses arg as JSON, or standard input when arg is "-".
func readBody(arg string, in io.Reader) (any, error) {
	data := []byte(arg)
	if arg == "-" {
		var err error
		if data, err = io.ReadAll(in); err != nil {
			return nil, errors.Wrap(errors.ErrCodeAPIEncode, "failed to read request body", err)
		}
	}

	var body any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, errors.Wrap(errors.ErrCodeAPIEncode, "request body is not valid JSON", err).
			WithSuggestion(`Quote the body, for example '{"title": "Lisbon"}'`)
	}
	return body, nil
}
