package config

import (
	"encoding/json"
	"io"
	"os"
	"path"
	"reflect"

	"ton-staking-manager/lib/utils"

	"github.com/chebyrash/promise"
	"github.com/go-playground/validator/v10"
)

// Config persists a module's settings as data/config/<TypeName>.json.
// A missing file is created from the default value on Init, so a fresh
// deployment gets a template the operator can edit.
type Config[T any] struct {
	defaultValue T
	dataDir      string

	loaded bool
	value  T
}

const defaultDataDir = "data"

var validate = validator.New(validator.WithRequiredStructEnabled())

func New[T any](defaultValue T, dataDir *string) *Config[T] {
	dir := defaultDataDir
	if dataDir != nil {
		dir = *dataDir
	}
	return &Config[T]{defaultValue: defaultValue, dataDir: dir}
}

func (c *Config[T]) filePath() string {
	name := reflect.TypeOf((*T)(nil)).Elem().Name()
	return path.Join(c.dataDir, "config", name+".json")
}

func (c *Config[T]) Init() error {
	f, err := os.Open(c.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			err = c.Update(func(t *T) {
				*t = c.defaultValue
			})
			if err != nil {
				return err
			}
		} else {
			return err
		}
	} else {
		defer f.Close()
		b, err := io.ReadAll(f)
		if err != nil {
			return err
		}
		err = json.Unmarshal(b, &c.value)
		if err != nil {
			return err
		}
	}
	if reflect.TypeOf((*T)(nil)).Elem().Kind() == reflect.Struct {
		if err := validate.Struct(c.value); err != nil {
			return err
		}
	}
	c.loaded = true
	return nil
}

func (c *Config[T]) Start() *promise.Promise[any] {
	return utils.PromiseResolve[any](nil)
}

func (c *Config[T]) Stop() error {
	return nil
}

func (c *Config[T]) Get() T {
	return c.value
}

func (c *Config[T]) Update(updater func(*T)) error {
	temp := c.value
	updater(&temp)
	b, err := json.MarshalIndent(temp, "", "  ")
	if err != nil {
		return err
	}
	err = os.MkdirAll(path.Dir(c.filePath()), 0755)
	if err != nil {
		return err
	}
	err = os.WriteFile(c.filePath(), b, 0644)
	if err != nil {
		return err
	}
	c.value = temp
	return nil
}
