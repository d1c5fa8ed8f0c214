// Package tasks resolves story/task ids against the project task list.
// The checkpoint store and keyword extraction read task text through it.
package tasks

import (
	"fmt"
	"os"
	"path/filepath"

	yamlv3 "gopkg.in/yaml.v3"
)

const fileName = "tasks.yaml"

// Task is one unit of work as declared in the task file.
type Task struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Status      string `yaml:"status"`
}

type taskFile struct {
	Tasks []Task `yaml:"tasks"`
}

// NotFoundError reports a lookup for an id the task file does not declare.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %s not found", e.ID)
}

// Store reads task definitions from <ralphDir>/tasks.yaml.
type Store struct {
	ralphDir string
}

func NewStore(ralphDir string) *Store {
	return &Store{ralphDir: ralphDir}
}

func (s *Store) path() string {
	return filepath.Join(s.ralphDir, fileName)
}

// All returns every declared task in file order. A missing file yields an
// empty list.
func (s *Store) All() ([]Task, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read task file: %w", err)
	}

	var f taskFile
	if err := yamlv3.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse task file: %w", err)
	}
	return f.Tasks, nil
}

// Lookup returns the task with the given id, or *NotFoundError.
func (s *Store) Lookup(id string) (Task, error) {
	all, err := s.All()
	if err != nil {
		return Task{}, err
	}
	for _, t := range all {
		if t.ID == id {
			return t, nil
		}
	}
	return Task{}, &NotFoundError{ID: id}
}
