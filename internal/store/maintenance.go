package store

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/vistoriaapp/core/internal/models"
)

// StripSyncedMedia removes inline photo/audio payloads that already
// have a remote URL, reclaiming space. Large encoded payloads must not
// persist long-term once uploaded. This is an optimization pass: it
// rewrites the stored document in place without bumping UpdatedAt, so
// it never triggers sync churn. Returns the number of drafts rewritten.
func (s *Store) StripSyncedMedia() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT id, payload FROM inspections WHERE namespace = ?`, s.namespace)
	if err != nil {
		s.logger.Warn("media maintenance skipped", zap.Error(err))
		return 0
	}

	type pending struct {
		id      string
		payload []byte
	}
	var updates []pending

	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			continue
		}
		var insp models.Inspection
		if err := json.Unmarshal(payload, &insp); err != nil {
			continue
		}
		if !stripUploaded(&insp) {
			continue
		}
		stripped, err := json.Marshal(&insp)
		if err != nil {
			continue
		}
		updates = append(updates, pending{id: id, payload: stripped})
	}
	rows.Close()

	count := 0
	for _, u := range updates {
		_, err := s.db.Exec(
			`UPDATE inspections SET payload = ? WHERE namespace = ? AND id = ?`,
			u.payload, s.namespace, u.id)
		if err != nil {
			s.logger.Warn("failed to strip media payloads",
				zap.String("inspection_id", u.id), zap.Error(err))
			continue
		}
		count++
	}
	if count > 0 {
		s.logger.Info("stripped uploaded media payloads",
			zap.Int("inspections", count))
	}
	return count
}

// stripUploaded clears cached payloads on media that already has a
// remote URL. Reports whether anything changed.
func stripUploaded(insp *models.Inspection) bool {
	changed := false
	for ri := range insp.Rooms {
		room := &insp.Rooms[ri]
		for pi := range room.Photos {
			if room.Photos[pi].URL != "" && room.Photos[pi].Payload != "" {
				room.Photos[pi].Payload = ""
				changed = true
			}
		}
		for ai := range room.Audios {
			if room.Audios[ai].URL != "" && room.Audios[ai].Payload != "" {
				room.Audios[ai].Payload = ""
				changed = true
			}
		}
	}
	return changed
}
