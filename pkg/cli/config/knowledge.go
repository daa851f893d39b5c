package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/pitch-lab/pitchcoach/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

// Knowledge holds CLI flags for the knowledge file used at ingestion
type Knowledge struct {
	path string
}

// Flags returns CLI flags for knowledge file configuration
func (k *Knowledge) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "knowledge-file",
			Usage:       "Path to the knowledge file (JSON or TOML)",
			Required:    true,
			Sources:     cli.EnvVars("PITCHCOACH_KNOWLEDGE_FILE"),
			Destination: &k.path,
		},
	}
}

// Path returns the configured knowledge file path
func (k *Knowledge) Path() string {
	return k.path
}

// Load reads and validates the knowledge file. The format follows the file
// extension: .toml parses as TOML, everything else as JSON.
func (k *Knowledge) Load() (*model.KnowledgeFile, error) {
	data, err := os.ReadFile(k.path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read knowledge file", goerr.V("path", k.path))
	}

	var file model.KnowledgeFile
	if strings.EqualFold(filepath.Ext(k.path), ".toml") {
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, goerr.Wrap(err, "failed to parse knowledge file as TOML", goerr.V("path", k.path))
		}
	} else {
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, goerr.Wrap(err, "failed to parse knowledge file as JSON", goerr.V("path", k.path))
		}
	}

	if err := file.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid knowledge file", goerr.V("path", k.path))
	}
	return &file, nil
}
