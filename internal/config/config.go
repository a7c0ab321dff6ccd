package config

import (
	"bytes"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type Root struct {
	Database DatabaseSection `yaml:"database"`
	Output   OutputSection   `yaml:"output"`
}

type DatabaseSection struct {
	Path string `yaml:"path"`
}

type OutputSection struct {
	Format      string `yaml:"format"`
	SampleLimit int    `yaml:"sample_limit"`
	CSVFile     string `yaml:"csv_file"`
}

func LoadFile(path string) (*Root, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

func Load(r io.Reader) (*Root, error) {
	var rs io.ReadSeeker
	if seeker, ok := r.(io.ReadSeeker); ok {
		rs = seeker
	} else {
		buf, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		rs = bytes.NewReader(buf)
	}
	if err := validateReader(rs); err != nil {
		return nil, err
	}
	var cfg Root
	dec := yaml.NewDecoder(rs)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	expandEnv(&cfg)
	return &cfg, nil
}

func expandEnv(cfg *Root) {
	cfg.Database.Path = os.ExpandEnv(cfg.Database.Path)
	cfg.Output.CSVFile = os.ExpandEnv(cfg.Output.CSVFile)
}
