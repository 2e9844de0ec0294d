package config

// Section is one named area of the configuration file.
type Section interface {
	// ID is the key of the section in the store.
	ID() string
	Title() string
	Description() string

	// Data returns the section as plain JSON values.
	Data() map[string]interface{}
	// SetData applies values read from the store. Unknown keys are ignored.
	SetData(data map[string]interface{}) error

	Validate() error
	// Reset restores the defaults.
	Reset()
}
