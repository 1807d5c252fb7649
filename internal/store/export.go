package store

import (
	"encoding/json"
	"io"

	"github.com/vistoriaapp/core/internal/errors"
	"github.com/vistoriaapp/core/internal/models"
	"github.com/vistoriaapp/core/internal/uuid"
)

// Export returns the draft as indented JSON, suitable for backup files.
func (s *Store) Export(id string) ([]byte, error) {
	insp, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(insp, "", "  ")
}

// Import reads a previously exported draft and stores it under a fresh
// ID, so imports can never collide with (or resurrect) existing records.
func (s *Store) Import(r io.Reader) (*models.Inspection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalid, "failed to read import", err)
	}

	var insp models.Inspection
	if err := json.Unmarshal(data, &insp); err != nil {
		return nil, errors.Wrap(errors.ErrInvalid, "import is not a valid inspection", err)
	}

	insp.ID = uuid.NewInspectionID()
	s.Put(&insp)
	return &insp, nil
}
