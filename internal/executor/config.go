package executor

import (
	"github.com/vk/gridflow/internal/dataset"
)

// StringConfig returns the named config value when it is a string.
func (ec *Context) StringConfig(key string) (string, bool) {
	s, ok := ec.Config[key].(string)
	return s, ok
}

// BoolConfig returns the named config value, or fallback when the key
// is absent or not a bool.
func (ec *Context) BoolConfig(key string, fallback bool) bool {
	if b, ok := ec.Config[key].(bool); ok {
		return b
	}
	return fallback
}

// IntConfig returns the named config value coerced to int, or fallback
// when the key is absent or not numeric. Config maps decoded from JSON
// or HCL carry numbers as float64.
func (ec *Context) IntConfig(key string, fallback int) int {
	switch v := ec.Config[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

// DatasetInput returns the dataset on the named input port, if one is
// connected and carries a dataset.
func (ec *Context) DatasetInput(port string) (*dataset.Dataset, bool) {
	v, ok := ec.Inputs[port]
	if !ok {
		return nil, false
	}
	ds, ok := v.(*dataset.Dataset)
	if !ok || ds == nil {
		return nil, false
	}
	return ds, true
}
