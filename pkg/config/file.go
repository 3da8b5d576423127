package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const configFileName = "lensview"

// FileSource implements ConfigSource for a YAML config file. Keys are the
// same names as the environment variables, matched case-insensitively.
type FileSource struct {
	v    *viper.Viper
	used string
}

// NewFileSource reads path, or when path is empty searches ., ./config and
// ~/.lens-viewer for lensview.yaml. A missing file in the search paths is not
// an error; an explicit path that cannot be read is.
func NewFileSource(path string) (*FileSource, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".lens-viewer"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return &FileSource{v: v}, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return &FileSource{v: v, used: v.ConfigFileUsed()}, nil
}

// Used returns the path of the file that was read, or "" if none was found.
func (f *FileSource) Used() string {
	return f.used
}

func (f *FileSource) get(key string) (interface{}, bool) {
	if !f.v.IsSet(key) {
		return nil, false
	}
	value := f.v.Get(key)
	return value, value != nil
}

func (f *FileSource) GetString(key string) (string, bool) {
	value, ok := f.get(key)
	if !ok {
		return "", false
	}
	if list, err := cast.ToStringSliceE(value); err == nil {
		if _, isString := value.(string); !isString {
			return strings.Join(list, ","), len(list) > 0
		}
	}
	s, err := cast.ToStringE(value)
	if err != nil || s == "" {
		return "", false
	}
	return s, true
}

func (f *FileSource) GetInt(key string) (int, bool) {
	value, ok := f.get(key)
	if !ok {
		return 0, false
	}
	i, err := cast.ToIntE(value)
	return i, err == nil
}

func (f *FileSource) GetFloat(key string) (float64, bool) {
	value, ok := f.get(key)
	if !ok {
		return 0, false
	}
	fl, err := cast.ToFloat64E(value)
	return fl, err == nil
}

func (f *FileSource) GetBool(key string) (bool, bool) {
	value, ok := f.get(key)
	if !ok {
		return false, false
	}
	b, err := cast.ToBoolE(value)
	return b, err == nil
}
