package config

import (
	"fmt"
	"path"
	"strings"
)

// AreaPattern matches areas by level, area index and name. Unset fields
// match anything.
type AreaPattern struct {
	LevelID  *int   `yaml:"levelId,omitempty" json:"levelId,omitempty"`
	AreaID   *int   `yaml:"areaId,omitempty" json:"areaId,omitempty"`
	AreaName string `yaml:"areaName,omitempty" json:"areaName,omitempty"`
}

func (p AreaPattern) Empty() bool {
	return p.LevelID == nil && p.AreaID == nil && p.AreaName == ""
}

// Matches reports whether an area fits the pattern. Names are compared
// case-insensitively and may contain * wildcards.
func (p AreaPattern) Matches(level, area int, name string) bool {
	if p.Empty() {
		return false
	}
	if p.LevelID != nil && *p.LevelID != level {
		return false
	}
	if p.AreaID != nil && *p.AreaID != area {
		return false
	}
	if p.AreaName != "" {
		pattern := strings.ToLower(p.AreaName)
		ok, err := path.Match(pattern, strings.ToLower(name))
		if err != nil || !ok {
			return false
		}
	}
	return true
}

func (p AreaPattern) String() string {
	var parts []string
	if p.LevelID != nil {
		parts = append(parts, fmt.Sprintf("level=%02X", *p.LevelID))
	}
	if p.AreaID != nil {
		parts = append(parts, fmt.Sprintf("area=%d", *p.AreaID))
	}
	if p.AreaName != "" {
		parts = append(parts, fmt.Sprintf("name=%s", p.AreaName))
	}
	return strings.Join(parts, " ")
}

type AreaPatterns []AreaPattern

func (a AreaPatterns) Matches(level, area int, name string) bool {
	for _, pattern := range a {
		if pattern.Matches(level, area, name) {
			return true
		}
	}
	return false
}

type Config struct {
	GlobalBankLimit int `yaml:"globalBankLimit" json:"globalBankLimit"`
	LocalBankLimit  int `yaml:"localBankLimit" json:"localBankLimit"`
	// Workers bounds how many areas are scanned at once during texture
	// bank discovery.
	Workers int `yaml:"workers" json:"workers"`

	VerboseDebugAreas AreaPatterns `yaml:"verboseDebugAreas" json:"verboseDebugAreas"`
	UVFixBlacklist    AreaPatterns `yaml:"uvFixBlacklist" json:"uvFixBlacklist"`

	CutoutFix                  bool     `yaml:"cutoutFix" json:"cutoutFix"`
	TextureCutoutHashBlacklist []string `yaml:"textureCutoutHashBlacklist" json:"textureCutoutHashBlacklist"`

	BoundsMinVertexLoads int `yaml:"boundsMinVertexLoads" json:"boundsMinVertexLoads"`
}

// CutoutBlacklist returns the blacklisted texture hashes as a set of
// upper case strings.
func (c *Config) CutoutBlacklist() map[string]struct{} {
	set := make(map[string]struct{}, len(c.TextureCutoutHashBlacklist))
	for _, hash := range c.TextureCutoutHashBlacklist {
		set[strings.ToUpper(hash)] = struct{}{}
	}
	return set
}
