package model

import "github.com/m-mizutani/goerr/v2"

// KnowledgeFile is the document consumed by the ingest command, read from
// JSON or TOML. It carries the extracted sales knowledge as nested records:
// client profiles
// with their objections, each objection with addressing strategies, each
// strategy with techniques, each technique with a single outcome.
type KnowledgeFile struct {
	Profiles []KnowledgeProfile `json:"profiles" toml:"profiles"`
}

type KnowledgeProfile struct {
	ProfileID   string            `json:"profile_id" toml:"profile_id"`
	Name        string            `json:"name" toml:"name"`
	Description string            `json:"desc" toml:"desc"`
	Properties  map[string]any    `json:"properties,omitempty" toml:"properties"`
	Objections  []KnowledgeRecord `json:"objections" toml:"objections"`
}

type KnowledgeRecord struct {
	ID          string              `json:"id" toml:"id"`
	Description string              `json:"desc" toml:"desc"`
	Priority    int                 `json:"priority,omitempty" toml:"priority"`
	Properties  map[string]any      `json:"properties,omitempty" toml:"properties"`
	Strategies  []KnowledgeStrategy `json:"addressing_strategies,omitempty" toml:"addressing_strategies"`
}

type KnowledgeStrategy struct {
	ID          string               `json:"id" toml:"id"`
	Description string               `json:"desc" toml:"desc"`
	Properties  map[string]any       `json:"properties,omitempty" toml:"properties"`
	Techniques  []KnowledgeTechnique `json:"techniques,omitempty" toml:"techniques"`
}

type KnowledgeTechnique struct {
	ID          string            `json:"id" toml:"id"`
	Description string            `json:"desc" toml:"desc"`
	Properties  map[string]any    `json:"properties,omitempty" toml:"properties"`
	Outcome     *KnowledgeOutcome `json:"outcome,omitempty" toml:"outcome"`
}

type KnowledgeOutcome struct {
	ID          string         `json:"id" toml:"id"`
	Description string         `json:"desc" toml:"desc"`
	Properties  map[string]any `json:"properties,omitempty" toml:"properties"`
}

// Validate checks referential completeness of the knowledge file before any
// write reaches the graph
func (f *KnowledgeFile) Validate() error {
	seen := make(map[string]bool)
	check := func(id, kind string) error {
		if id == "" {
			return goerr.New("knowledge record is missing an ID", goerr.V("kind", kind))
		}
		if seen[id] {
			return goerr.New("duplicate knowledge record ID", goerr.V("id", id), goerr.V("kind", kind))
		}
		seen[id] = true
		return nil
	}

	for _, p := range f.Profiles {
		if err := check(p.ProfileID, "profile"); err != nil {
			return err
		}
		for _, obj := range p.Objections {
			if err := check(obj.ID, "objection"); err != nil {
				return err
			}
			for _, st := range obj.Strategies {
				if err := check(st.ID, "strategy"); err != nil {
					return err
				}
				for _, tn := range st.Techniques {
					if err := check(tn.ID, "technique"); err != nil {
						return err
					}
					if tn.Outcome != nil {
						if err := check(tn.Outcome.ID, "outcome"); err != nil {
							return err
						}
					}
				}
			}
		}
	}
	return nil
}
