package store

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"sitevoice-go/internal/config"
	"sitevoice-go/internal/extractor"
	"sitevoice-go/internal/types"
)

// Fixtures is the YAML seed document.
type Fixtures struct {
	Accounts   []types.Account   `yaml:"accounts"`
	Users      []types.User      `yaml:"users"`
	Projects   []types.Project   `yaml:"projects"`
	Prompts    []types.Prompt    `yaml:"prompts"`
	VoiceNotes []types.VoiceNote `yaml:"voice_notes"`
}

// SeedCounts reports how many rows of each kind were upserted.
type SeedCounts struct {
	Accounts, Users, Projects, Prompts, VoiceNotes int
}

// Seed upserts YAML fixtures by primary key.
func (s *Store) Seed(ctx context.Context, r io.Reader) (SeedCounts, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && err != io.EOF {
		return SeedCounts{}, fmt.Errorf("decode fixtures: %w", err)
	}
	for i := range fx.Prompts {
		if fx.Prompts[i].ID == "" {
			fx.Prompts[i].ID = uuid.NewString()
		}
	}
	for i := range fx.VoiceNotes {
		if fx.VoiceNotes[i].Status == "" {
			fx.VoiceNotes[i].Status = types.StatusReceived
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := tx.Omit(clause.Associations).Clauses(clause.OnConflict{UpdateAll: true}).Session(&gorm.Session{})
		steps := []struct {
			name string
			rows interface{}
			n    int
		}{
			{"accounts", &fx.Accounts, len(fx.Accounts)},
			{"users", &fx.Users, len(fx.Users)},
			{"projects", &fx.Projects, len(fx.Projects)},
			{"prompts", &fx.Prompts, len(fx.Prompts)},
			{"voice_notes", &fx.VoiceNotes, len(fx.VoiceNotes)},
		}
		for _, st := range steps {
			if st.n == 0 {
				continue
			}
			if err := upsert.Create(st.rows).Error; err != nil {
				return fmt.Errorf("seed %s: %w", st.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return SeedCounts{}, err
	}

	counts := SeedCounts{
		Accounts:   len(fx.Accounts),
		Users:      len(fx.Users),
		Projects:   len(fx.Projects),
		Prompts:    len(fx.Prompts),
		VoiceNotes: len(fx.VoiceNotes),
	}
	s.log.WithField("counts", fmt.Sprintf("%+v", counts)).Info("fixtures seeded")
	return counts, nil
}

// SeedDefaultPrompts registers version 1 of the built-in analysis and
// translation prompts for every provider that has none for that purpose.
func (s *Store) SeedDefaultPrompts(ctx context.Context) (int, error) {
	defaults := map[string]string{
		types.PurposeAnalysis:    extractor.DefaultAnalysisTemplate,
		types.PurposeTranslation: extractor.DefaultTranslationTemplate,
	}
	created := 0
	for _, provider := range []string{config.ProviderGroq, config.ProviderOpenAI, config.ProviderGemini} {
		for _, purpose := range []string{types.PurposeAnalysis, types.PurposeTranslation} {
			var n int64
			if err := s.db.WithContext(ctx).Model(&types.Prompt{}).
				Where("provider = ? AND purpose = ?", provider, purpose).
				Count(&n).Error; err != nil {
				return created, fmt.Errorf("count prompts: %w", err)
			}
			if n > 0 {
				continue
			}
			p := types.Prompt{
				ID:       uuid.NewString(),
				Provider: provider,
				Purpose:  purpose,
				Version:  1,
				Template: defaults[purpose],
				Active:   true,
			}
			if err := s.InsertOne(ctx, p.TableName(), &p); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}
