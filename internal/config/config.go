// Package config loads cohortctl settings from TOML.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/cohortctl/internal/codec"
	"github.com/danmuck/cohortctl/internal/rank"
)

const DefaultPath = "cohortctl.toml"

type Config struct {
	Paths   PathsConfig   `toml:"paths"`
	Ranking RankingConfig `toml:"ranking"`
	Codec   CodecConfig   `toml:"codec"`
	Server  ServerConfig  `toml:"server"`
	Export  ExportConfig  `toml:"export"`
}

type PathsConfig struct {
	Binary string `toml:"binary"`
}

type RankingConfig struct {
	TopLimit    int      `toml:"top_limit"`
	CourseLimit int      `toml:"course_limit"`
	Courses     []string `toml:"courses"`
}

type CodecConfig struct {
	MaxStudents int `toml:"max_students"`
	MaxCourses  int `toml:"max_courses"`
	MaxGrades   int `toml:"max_grades"`
}

type ServerConfig struct {
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
}

type ExportConfig struct {
	SQLite string `toml:"sqlite"`
}

func Default() Config {
	limits := codec.DefaultLimits()
	return Config{
		Paths: PathsConfig{Binary: "save.bin"},
		Ranking: RankingConfig{
			TopLimit:    rank.DefaultTopLimit,
			CourseLimit: rank.DefaultCourseLimit,
			Courses:     []string{"Geographie"},
		},
		Codec: CodecConfig{
			MaxStudents: limits.MaxStudents,
			MaxCourses:  limits.MaxCourses,
			MaxGrades:   limits.MaxGrades,
		},
		Server: ServerConfig{
			Addr:        ":9300",
			CorsOrigins: []string{"http://localhost:3000"},
		},
		Export: ExportConfig{SQLite: "cohort.db"},
	}
}

// Load overlays the keys present in path onto Default and validates the
// result. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw Config
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if meta.IsDefined("paths", "binary") {
		cfg.Paths.Binary = strings.TrimSpace(raw.Paths.Binary)
	}
	if meta.IsDefined("ranking", "top_limit") {
		cfg.Ranking.TopLimit = raw.Ranking.TopLimit
	}
	if meta.IsDefined("ranking", "course_limit") {
		cfg.Ranking.CourseLimit = raw.Ranking.CourseLimit
	}
	if meta.IsDefined("ranking", "courses") {
		cfg.Ranking.Courses = normalizeList(raw.Ranking.Courses)
	}
	if meta.IsDefined("codec", "max_students") {
		cfg.Codec.MaxStudents = raw.Codec.MaxStudents
	}
	if meta.IsDefined("codec", "max_courses") {
		cfg.Codec.MaxCourses = raw.Codec.MaxCourses
	}
	if meta.IsDefined("codec", "max_grades") {
		cfg.Codec.MaxGrades = raw.Codec.MaxGrades
	}
	if meta.IsDefined("server", "addr") {
		cfg.Server.Addr = strings.TrimSpace(raw.Server.Addr)
	}
	if meta.IsDefined("server", "cors_origins") {
		cfg.Server.CorsOrigins = normalizeList(raw.Server.CorsOrigins)
	}
	if meta.IsDefined("export", "sqlite") {
		cfg.Export.SQLite = strings.TrimSpace(raw.Export.SQLite)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Paths.Binary) == "" {
		return fmt.Errorf("paths.binary is required")
	}
	if cfg.Ranking.TopLimit <= 0 {
		return fmt.Errorf("ranking.top_limit must be positive, got %d", cfg.Ranking.TopLimit)
	}
	if cfg.Ranking.CourseLimit <= 0 {
		return fmt.Errorf("ranking.course_limit must be positive, got %d", cfg.Ranking.CourseLimit)
	}
	if cfg.Codec.MaxStudents <= 0 || cfg.Codec.MaxCourses <= 0 || cfg.Codec.MaxGrades <= 0 {
		return fmt.Errorf("codec limits must be positive")
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return fmt.Errorf("server.addr is required")
	}
	if strings.TrimSpace(cfg.Export.SQLite) == "" {
		return fmt.Errorf("export.sqlite is required")
	}
	return nil
}

// Limits converts the codec section for DecodeWithLimits.
func (c Config) Limits() codec.Limits {
	return codec.Limits{
		MaxStringLen: codec.MaxStringLen,
		MaxStudents:  c.Codec.MaxStudents,
		MaxCourses:   c.Codec.MaxCourses,
		MaxGrades:    c.Codec.MaxGrades,
	}
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
