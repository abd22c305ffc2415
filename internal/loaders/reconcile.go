package loaders

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/openlearn/catalog-backend/internal/canonical"
	"github.com/openlearn/catalog-backend/internal/types"
)

// Relation reconciliation. Topics, prices and instructors use set semantics:
// the relation is replaced to exactly match the latest source snapshot.
// offered_by is additive only: a sync for one brand must never remove
// another brand's claim.

func (s *Service) setTopics(ctx context.Context, tx *gorm.DB, parent any, topics []canonical.Topic) error {
	rows := make([]*types.CourseTopic, 0, len(topics))
	seen := map[string]bool{}
	for _, t := range topics {
		name := strings.TrimSpace(t.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		row, err := s.topics.GetOrCreate(ctx, tx, name)
		if err != nil {
			return fmt.Errorf("get-or-create topic %q: %w", name, err)
		}
		rows = append(rows, row)
	}
	assoc := tx.WithContext(ctx).Model(parent).Association("Topics")
	if len(rows) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(rows)
}

func (s *Service) setPrices(ctx context.Context, tx *gorm.DB, parent any, prices []canonical.Price) error {
	rows := make([]*types.CoursePrice, 0, len(prices))
	seen := map[string]bool{}
	for _, p := range prices {
		key := fmt.Sprintf("%v|%s|%v", p.Price, p.Mode, p.UpgradeDeadline)
		if seen[key] {
			continue
		}
		seen[key] = true
		row, err := s.prices.GetOrCreate(ctx, tx, p.Price, p.Mode, p.UpgradeDeadline)
		if err != nil {
			return fmt.Errorf("get-or-create price %v/%s: %w", p.Price, p.Mode, err)
		}
		rows = append(rows, row)
	}
	assoc := tx.WithContext(ctx).Model(parent).Association("Prices")
	if len(rows) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(rows)
}

func (s *Service) setInstructors(ctx context.Context, tx *gorm.DB, parent any, instructors []canonical.Instructor) error {
	rows := make([]*types.CourseInstructor, 0, len(instructors))
	seen := map[string]bool{}
	for _, in := range instructors {
		first := strings.TrimSpace(in.FirstName)
		last := strings.TrimSpace(in.LastName)
		full := strings.TrimSpace(in.FullName)
		if first == "" && last == "" && full == "" {
			continue
		}
		key := first + "|" + last
		if seen[key] {
			continue
		}
		seen[key] = true
		row, err := s.instructors.GetOrCreate(ctx, tx, first, last, full)
		if err != nil {
			return fmt.Errorf("get-or-create instructor %q %q: %w", first, last, err)
		}
		rows = append(rows, row)
	}
	assoc := tx.WithContext(ctx).Model(parent).Association("Instructors")
	if len(rows) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(rows)
}

func (s *Service) addOfferedBy(ctx context.Context, tx *gorm.DB, parent any, offerors []canonical.OfferedBy) error {
	rows := make([]*types.LearningResourceOfferor, 0, len(offerors))
	seen := map[string]bool{}
	for _, o := range offerors {
		name := strings.TrimSpace(o.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		row, err := s.offerors.GetOrCreate(ctx, tx, name)
		if err != nil {
			return fmt.Errorf("get-or-create offeror %q: %w", name, err)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Model(parent).Association("OfferedBy").Append(rows)
}
