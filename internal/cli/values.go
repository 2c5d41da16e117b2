package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/aesprefs/internal/prefs"
)

// ValidTypes are the value types accepted by --type.
var ValidTypes = []string{"string", "int", "long", "float", "double", "bool"}

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	Type    string
	Default string
	Strict  bool // fail instead of printing the default
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Read a value",
		Long: `Read and decrypt the value stored under key.

A missing or unreadable value prints the --default (the type's zero value
if unset). With --strict the command fails with exit code 1 instead.

Examples:
  aesprefs get name
  aesprefs get launches --type int --default 0
  aesprefs get name --strict --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts.RootOptions, false, func(ctx context.Context, s *session) error {
				return runGet(ctx, s, opts, args[0])
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Type, "type", "t", "string", "value type (string|int|long|float|double|bool)")
	cmd.Flags().StringVarP(&opts.Default, "default", "d", "", "value printed when the key is missing")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail if the key is missing or unreadable")

	return cmd
}

func runGet(ctx context.Context, s *session, opts *GetOptions, key string) error {
	if opts.Strict {
		text, err := s.store.Lookup(ctx, key)
		if err != nil {
			code := CodeBackend
			if errors.Is(err, prefs.ErrNotFound) || errors.Is(err, prefs.ErrDecode) {
				code = CodeNotFound
			}
			s.out.Error(code, err.Error(), nil)
			return WrapExitError(ExitFailure, "lookup failed", err)
		}
		v, err := parseTyped(opts.Type, text)
		if err != nil {
			s.out.Error(CodeNotFound, err.Error(), nil)
			return WrapExitError(ExitFailure, fmt.Sprintf("value of %q is not a %s", key, opts.Type), err)
		}
		return s.out.Success(v)
	}

	v, err := getTyped(ctx, s.store, opts.Type, key, opts.Default)
	if err != nil {
		s.out.Error(CodeArgument, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid default", err)
	}
	return s.out.Success(v)
}

// PutOptions holds flags for the put command.
type PutOptions struct {
	*RootOptions
	Type     string
	IfAbsent bool
}

// NewPutCommand creates the put command.
func NewPutCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PutOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "put <key> <value>",
		Short: "Write a value",
		Long: `Encrypt and store value under key.

The value is parsed as --type first so that, for example, an int entry
always holds a decimal integer.

Examples:
  aesprefs put name Ada
  aesprefs put ratio 0.75 --type double
  aesprefs put theme dark --if-absent`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts.RootOptions, false, func(ctx context.Context, s *session) error {
				return runPut(ctx, s, opts, args[0], args[1])
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Type, "type", "t", "string", "value type (string|int|long|float|double|bool)")
	cmd.Flags().BoolVar(&opts.IfAbsent, "if-absent", false, "only write if the key has no value")

	return cmd
}

func runPut(ctx context.Context, s *session, opts *PutOptions, key, raw string) error {
	v, err := parseTyped(opts.Type, raw)
	if err != nil {
		s.out.Error(CodeArgument, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid value", err)
	}

	if opts.IfAbsent {
		wrote, err := initTyped(ctx, s.store, key, v)
		if err != nil {
			s.out.Error(CodeBackend, err.Error(), nil)
			return WrapExitError(ExitCommandError, "write failed", err)
		}
		return s.out.Success(map[string]any{"key": key, "written": wrote})
	}

	if err := putTyped(ctx, s.store, key, v); err != nil {
		s.out.Error(CodeBackend, err.Error(), nil)
		return WrapExitError(ExitCommandError, "write failed", err)
	}
	return s.out.Success(map[string]any{"key": key, "written": true})
}

// parseTyped parses raw as typ. The result's dynamic type selects the
// accessor in putTyped and initTyped.
func parseTyped(typ, raw string) (any, error) {
	switch typ {
	case "", "string":
		return raw, nil
	case "int":
		n, err := strconv.ParseInt(raw, 10, 32)
		return int(n), err
	case "long":
		return strconv.ParseInt(raw, 10, 64)
	case "float":
		f, err := strconv.ParseFloat(raw, 32)
		return float32(f), err
	case "double":
		return strconv.ParseFloat(raw, 64)
	case "bool":
		return strconv.ParseBool(raw)
	}
	return nil, fmt.Errorf("unknown type %q: must be one of %v", typ, ValidTypes)
}

func putTyped(ctx context.Context, store *prefs.Store, key string, v any) error {
	switch v := v.(type) {
	case string:
		return store.PutString(ctx, key, v)
	case int:
		return store.PutInt(ctx, key, v)
	case int64:
		return store.PutLong(ctx, key, v)
	case float32:
		return store.PutFloat(ctx, key, v)
	case float64:
		return store.PutDouble(ctx, key, v)
	case bool:
		return store.PutBool(ctx, key, v)
	}
	return fmt.Errorf("unsupported value type %T", v)
}

func initTyped(ctx context.Context, store *prefs.Store, key string, v any) (bool, error) {
	switch v := v.(type) {
	case string:
		return store.InitString(ctx, key, v)
	case int:
		return store.InitInt(ctx, key, v)
	case int64:
		return store.InitLong(ctx, key, v)
	case float32:
		return store.InitFloat(ctx, key, v)
	case float64:
		return store.InitDouble(ctx, key, v)
	case bool:
		return store.InitBool(ctx, key, v)
	}
	return false, fmt.Errorf("unsupported value type %T", v)
}

// getTyped reads key with the typed getter. An empty def means the type's
// zero value.
func getTyped(ctx context.Context, store *prefs.Store, typ, key, def string) (any, error) {
	if def == "" && typ != "" && typ != "string" {
		def = zeroText(typ)
	}
	d, err := parseTyped(typ, def)
	if err != nil {
		return nil, err
	}

	switch d := d.(type) {
	case string:
		return store.GetString(ctx, key, d), nil
	case int:
		return store.GetInt(ctx, key, d), nil
	case int64:
		return store.GetLong(ctx, key, d), nil
	case float32:
		return store.GetFloat(ctx, key, d), nil
	case float64:
		return store.GetDouble(ctx, key, d), nil
	case bool:
		return store.GetBool(ctx, key, d), nil
	}
	return nil, fmt.Errorf("unsupported value type %T", d)
}

func zeroText(typ string) string {
	if typ == "bool" {
		return "false"
	}
	return "0"
}
