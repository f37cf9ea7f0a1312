package main

import (
	"fmt"
	"os"

	"github.com/dgallion1/recexport/internal/doctree"
	"github.com/dgallion1/recexport/internal/export"
	"gopkg.in/yaml.v3"
)

// recordFile is the on-disk form of one export request. JSON files parse
// as YAML.
type recordFile struct {
	doctree.ClinicalRecord `yaml:",inline"`
	Clinic                 doctree.ClinicHeader `yaml:"clinic"`
}

func loadRecord(path string) (export.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return export.Request{}, fmt.Errorf("read record: %w", err)
	}
	return parseRecord(data)
}

func parseRecord(data []byte) (export.Request, error) {
	var f recordFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return export.Request{}, fmt.Errorf("parse record: %w", err)
	}
	return export.Request{Record: f.ClinicalRecord, Clinic: f.Clinic}, nil
}
