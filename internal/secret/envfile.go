package secret

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is the dotenv file read when no path is configured.
const DefaultEnvFile = ".env"

// EnvFile serves secrets from the process environment after loading a dotenv
// file into it.
//
// Variables already present in the environment are never overwritten by the
// file. When the file repeats a key, the last occurrence wins.
type EnvFile struct {
	path string
}

// NewEnvFile loads path into the process environment. A missing file is not
// an error; the provider then serves whatever the environment already holds.
func NewEnvFile(path string) (*EnvFile, error) {
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return &EnvFile{path: path}, nil
}

func (p *EnvFile) Name() string { return string(TypeDotenv) }

// Path returns the dotenv file this provider was built from.
func (p *EnvFile) Path() string { return p.path }

func (p *EnvFile) Lookup(_ context.Context, name string) (string, bool, error) {
	v, ok := os.LookupEnv(name)
	return v, ok, nil
}

func (p *EnvFile) Close() error { return nil }
