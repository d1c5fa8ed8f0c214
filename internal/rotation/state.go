package rotation

import (
	"os"
	"path/filepath"

	"ralph/internal/jsonfile"
	"ralph/internal/lock"
	"ralph/internal/logging"
	"ralph/internal/model"
)

// stateFileName is the single rotation document per project/run.
const stateFileName = "rotation.json"

// Store persists the rotation state document. Loads never fail: a missing
// file yields the fixed empty defaults and a corrupt file is quarantined and
// reinitialized in place.
type Store struct {
	ralphDir string
	lockMap  *lock.MutexMap
	logger   *logging.Logger
}

func NewStore(ralphDir string, lockMap *lock.MutexMap, logger *logging.Logger) *Store {
	return &Store{
		ralphDir: ralphDir,
		lockMap:  lockMap,
		logger:   logging.OrNop(logger),
	}
}

func (s *Store) Path() string {
	return filepath.Join(s.ralphDir, "state", stateFileName)
}

func (s *Store) Load() *model.RotationState {
	s.lockMap.Lock("rotation")
	defer s.lockMap.Unlock("rotation")
	return s.load()
}

func (s *Store) load() *model.RotationState {
	path := s.Path()

	var state model.RotationState
	err := jsonfile.Load(path, &state)
	if err == nil {
		state.Normalize()
		return &state
	}
	if os.IsNotExist(err) {
		return model.NewRotationState()
	}

	s.logger.Warn("rotation state unreadable, reinitializing: %v", err)
	defaults := model.NewRotationState()
	if rerr := jsonfile.Recover(s.ralphDir, path, defaults); rerr != nil {
		s.logger.Error("rotation state recovery failed: %v", rerr)
		return defaults
	}

	// The recovery path may have restored a valid backup.
	var restored model.RotationState
	if err := jsonfile.Load(path, &restored); err != nil {
		return defaults
	}
	restored.Normalize()
	return &restored
}

func (s *Store) Save(state *model.RotationState) error {
	s.lockMap.Lock("rotation")
	defer s.lockMap.Unlock("rotation")
	return s.save(state)
}

func (s *Store) save(state *model.RotationState) error {
	path := s.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return jsonfile.AtomicWrite(path, state)
}

// Update runs fn against the current state under the rotation lock and
// persists the result. All scheduler mutations go through here so call
// sequence equals persisted order.
func (s *Store) Update(fn func(*model.RotationState)) error {
	s.lockMap.Lock("rotation")
	defer s.lockMap.Unlock("rotation")

	state := s.load()
	fn(state)
	return s.save(state)
}
