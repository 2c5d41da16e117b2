package harness

import (
	"context"
	"fmt"
	"math"
	"strconv"
)

type opSpec struct {
	keyed      bool
	typed      bool
	needsValue bool
}

var operations = map[string]opSpec{
	"init":                   {needsValue: true},
	"put":                    {keyed: true, typed: true, needsValue: true},
	"get":                    {keyed: true, typed: true},
	"lookup":                 {keyed: true},
	"contains":               {keyed: true},
	"init_value":             {keyed: true, typed: true, needsValue: true},
	"store_array":            {keyed: true},
	"restore_array":          {keyed: true},
	"remove":                 {keyed: true},
	"encrypted_key":          {keyed: true},
	"count":                  {},
	"dump":                   {},
	"delete_all":             {},
	"init_launch_counter":    {},
	"launch_counter":         {},
	"init_installation_date": {},
	"installation_date":      {},
	"installation_id":        {},
}

func validType(t string) bool {
	switch t {
	case "", "string", "int", "long", "float", "double", "bool":
		return true
	}
	return false
}

// execute runs one step and returns its result. args is what the step
// passed in, for the trace.
func (h *Harness) execute(ctx context.Context, step Step) (args, result any, err error) {
	s := h.store
	switch step.Op {
	case "init":
		ns := step.Key
		if ns == "" {
			ns = h.namespace
		}
		return ns, nil, s.Init(ctx, ns, toString(step.Value))
	case "put":
		return step.Value, nil, h.put(ctx, step)
	case "get":
		v, err := h.get(ctx, step.Key, step.Type, step.Default)
		return step.Default, v, err
	case "lookup":
		v, err := s.Lookup(ctx, step.Key)
		if err != nil {
			return nil, nil, err
		}
		return nil, v, nil
	case "contains":
		return nil, s.Contains(ctx, step.Key), nil
	case "init_value":
		wrote, err := h.initValue(ctx, step)
		return step.Value, wrote, err
	case "store_array":
		return step.Values, nil, s.StoreArray(ctx, step.Key, step.Values)
	case "restore_array":
		return nil, s.RestoreArray(ctx, step.Key), nil
	case "remove":
		return nil, nil, s.Remove(ctx, step.Key)
	case "encrypted_key":
		return nil, s.EncryptedKey(step.Key), nil
	case "count":
		n, err := s.CountEntries(ctx)
		return nil, n, err
	case "dump":
		content, err := s.EncryptedContent(ctx)
		return nil, content, err
	case "delete_all":
		return nil, nil, s.DeleteAll(ctx)
	case "init_launch_counter":
		n, err := s.InitOrIncrementLaunchCounter(ctx)
		return nil, n, err
	case "launch_counter":
		return nil, s.LaunchCounter(ctx), nil
	case "init_installation_date":
		wrote, err := s.InitInstallationDate(ctx)
		return nil, wrote, err
	case "installation_date":
		return nil, s.InstallationDate(ctx), nil
	case "installation_id":
		return nil, s.InstallationID(ctx), nil
	default:
		return nil, nil, fmt.Errorf("unknown op %q", step.Op)
	}
}

func (h *Harness) put(ctx context.Context, step Step) error {
	s := h.store
	switch step.Type {
	case "", "string":
		return s.PutString(ctx, step.Key, toString(step.Value))
	case "int":
		n, err := toInt64(step.Value)
		if err != nil {
			return err
		}
		return s.PutInt(ctx, step.Key, int(n))
	case "long":
		n, err := toInt64(step.Value)
		if err != nil {
			return err
		}
		return s.PutLong(ctx, step.Key, n)
	case "float":
		f, err := toFloat64(step.Value)
		if err != nil {
			return err
		}
		return s.PutFloat(ctx, step.Key, float32(f))
	case "double":
		f, err := toFloat64(step.Value)
		if err != nil {
			return err
		}
		return s.PutDouble(ctx, step.Key, f)
	case "bool":
		b, err := toBool(step.Value)
		if err != nil {
			return err
		}
		return s.PutBool(ctx, step.Key, b)
	}
	return fmt.Errorf("unknown type %q", step.Type)
}

// get reads key with the typed getter. A nil def means the type's zero
// value.
func (h *Harness) get(ctx context.Context, key, typ string, def any) (any, error) {
	s := h.store
	switch typ {
	case "", "string":
		return s.GetString(ctx, key, toString(def)), nil
	case "int":
		n, err := toInt64OrZero(def)
		if err != nil {
			return nil, err
		}
		return s.GetInt(ctx, key, int(n)), nil
	case "long":
		n, err := toInt64OrZero(def)
		if err != nil {
			return nil, err
		}
		return s.GetLong(ctx, key, n), nil
	case "float":
		f, err := toFloat64OrZero(def)
		if err != nil {
			return nil, err
		}
		return s.GetFloat(ctx, key, float32(f)), nil
	case "double":
		f, err := toFloat64OrZero(def)
		if err != nil {
			return nil, err
		}
		return s.GetDouble(ctx, key, f), nil
	case "bool":
		b := false
		if def != nil {
			var err error
			if b, err = toBool(def); err != nil {
				return nil, err
			}
		}
		return s.GetBool(ctx, key, b), nil
	}
	return nil, fmt.Errorf("unknown type %q", typ)
}

func (h *Harness) initValue(ctx context.Context, step Step) (bool, error) {
	s := h.store
	switch step.Type {
	case "", "string":
		return s.InitString(ctx, step.Key, toString(step.Value))
	case "int":
		n, err := toInt64(step.Value)
		if err != nil {
			return false, err
		}
		return s.InitInt(ctx, step.Key, int(n))
	case "long":
		n, err := toInt64(step.Value)
		if err != nil {
			return false, err
		}
		return s.InitLong(ctx, step.Key, n)
	case "float":
		f, err := toFloat64(step.Value)
		if err != nil {
			return false, err
		}
		return s.InitFloat(ctx, step.Key, float32(f))
	case "double":
		f, err := toFloat64(step.Value)
		if err != nil {
			return false, err
		}
		return s.InitDouble(ctx, step.Key, f)
	case "bool":
		b, err := toBool(step.Value)
		if err != nil {
			return false, err
		}
		return s.InitBool(ctx, step.Key, b)
	}
	return false, fmt.Errorf("unknown type %q", step.Type)
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(v)
	}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", n)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	}
	return 0, fmt.Errorf("%v (%T) is not an integer", v, v)
}

func toInt64OrZero(v any) (int64, error) {
	if v == nil {
		return 0, nil
	}
	return toInt64(v)
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float64:
		return n, nil
	case string:
		return strconv.ParseFloat(n, 64)
	}
	return 0, fmt.Errorf("%v (%T) is not a number", v, v)
}

func toFloat64OrZero(v any) (float64, error) {
	if v == nil {
		return 0, nil
	}
	return toFloat64(v)
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(b)
	}
	return false, fmt.Errorf("%v (%T) is not a bool", v, v)
}

// normalize maps results and YAML values onto one representation so they
// can be compared: integers become int64, floats float64 (float32 via its
// shortest decimal form) and slices []any.
func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case uint64:
		if n <= math.MaxInt64 {
			return int64(n)
		}
		return float64(n)
	case float32:
		f, _ := strconv.ParseFloat(strconv.FormatFloat(float64(n), 'g', -1, 32), 64)
		return normalize(f)
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n)
		}
		return n
	case []string:
		out := make([]any, len(n))
		for i, s := range n {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, e := range n {
			out[i] = normalize(e)
		}
		return out
	}
	return v
}
