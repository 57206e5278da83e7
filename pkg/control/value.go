package control

// ValueControl acquires one free-form string value.
type ValueControl struct {
	leafControl
}

// NewValue creates a free-value control.
func NewValue(cfg ValueConfig) (*ValueControl, error) {
	leaf, err := newLeaf(cfg)
	if err != nil {
		return nil, err
	}
	c := &ValueControl{leafControl: leaf}
	c.m.coerce = coerceString
	return c, nil
}
