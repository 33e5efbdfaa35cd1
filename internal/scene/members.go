package scene

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// memberNamespace seeds IDs for members listed without one, so the same
// member keeps its identity across reloads.
var memberNamespace = uuid.MustParse("6f1c3a52-8d0e-4b7a-9c55-2f6e1d0b9a41")

type Member struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Party        string `yaml:"party"`
	Constituency string `yaml:"constituency"`
	Side         string `yaml:"side"`
}

type membersFile struct {
	Members []Member `yaml:"members"`
}

func LoadMembers(path string) ([]Member, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read members: %w", err)
	}
	return ParseMembers(data)
}

// ParseMembers accepts either a bare list or a {members: [...]} document, in
// YAML or JSON. Entries without a name are dropped.
func ParseMembers(data []byte) ([]Member, error) {
	var list []Member
	if err := yaml.Unmarshal(data, &list); err != nil {
		var doc membersFile
		if err2 := yaml.Unmarshal(data, &doc); err2 != nil {
			return nil, fmt.Errorf("parse members: %w", err2)
		}
		list = doc.Members
	}

	valid := lo.Filter(list, func(m Member, i int) bool {
		if strings.TrimSpace(m.Name) == "" {
			slog.Warn("Skipping member without name", "index", i)
			return false
		}
		return true
	})
	return lo.Map(valid, func(m Member, _ int) Member {
		return normalizeMember(m)
	}), nil
}

func normalizeMember(m Member) Member {
	m.Name = strings.TrimSpace(m.Name)
	m.Party = strings.TrimSpace(m.Party)
	m.Constituency = strings.TrimSpace(m.Constituency)
	switch side := strings.ToLower(strings.TrimSpace(m.Side)); side {
	case SideGovernment, SideOpposition:
		m.Side = side
	default:
		m.Side = SideCrossbench
	}
	if m.ID == "" {
		m.ID = uuid.NewSHA1(memberNamespace, []byte(m.Name+"|"+m.Constituency)).String()
	}
	return m
}
