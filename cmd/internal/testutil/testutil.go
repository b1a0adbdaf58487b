package testutil

import (
	"context"
	"familynotes/cmd/internal/domain/database"
	"familynotes/cmd/internal/domain/entity"
	"familynotes/cmd/internal/utils"
	"familynotes/cmd/internal/utils/dbctx"
	"familynotes/cmd/internal/utils/uid"
	"fmt"
	"testing"

	"gorm.io/gorm"
)

// DB opens a fresh, migrated in-memory database for a single test.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	if err := uid.Init(1); err != nil {
		tb.Fatalf("failed to init uid: %v", err)
	}

	db, err := database.Init(database.Config{
		Driver: database.DriverSQLite,
		Path:   ":memory:",
		Silent: true,
	})
	if err != nil {
		tb.Fatalf("failed to init test db: %v", err)
	}

	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func Ctx() dbctx.Context {
	return dbctx.Background(context.Background())
}

func SeedUser(tb testing.TB, db *gorm.DB, name string) *entity.User {
	tb.Helper()
	now := utils.NowUTC()
	u := &entity.User{
		ID:          uid.Generate(),
		SubUUID:     fmt.Sprintf("sub-%s-%d", name, uid.Generate()),
		DisplayName: name,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedMember links a brand new user to the creator with the given role.
func SeedMember(tb testing.TB, db *gorm.DB, creatorID int64, name string, role entity.Role) (*entity.User, *entity.FamilyMember) {
	tb.Helper()
	u := SeedUser(tb, db, name)
	now := utils.NowUTC()
	m := &entity.FamilyMember{
		ID:                uid.Generate(),
		CreatorID:         creatorID,
		MemberID:          u.ID,
		Relationship:      "child",
		RelationshipLabel: name,
		Role:              role,
		IsActive:          true,
		JoinedAt:          now,
		UpdatedAt:         now,
	}
	if err := db.Create(m).Error; err != nil {
		tb.Fatalf("seed member: %v", err)
	}
	return u, m
}

// SeedLifecycle stores a lifecycle row in the given state.
func SeedLifecycle(tb testing.TB, db *gorm.DB, creatorID int64, status entity.LifecycleStatus, deletion entity.DeletionStatus) *entity.NoteLifecycle {
	tb.Helper()
	now := utils.NowUTC()
	lc := entity.NewLifecycle(creatorID)
	lc.ID = uid.Generate()
	lc.Status = status
	lc.DeletionStatus = deletion
	lc.CreatedAt = now
	lc.UpdatedAt = now
	if err := db.Create(lc).Error; err != nil {
		tb.Fatalf("seed lifecycle: %v", err)
	}
	return lc
}

func SeedNote(tb testing.TB, db *gorm.DB, creatorID int64, category entity.Category, title string) *entity.Note {
	tb.Helper()
	now := utils.NowUTC()
	n := &entity.Note{
		ID:         uid.Generate(),
		CreatorID:  creatorID,
		CategoryID: category,
		Title:      title,
		Content:    "content of " + title,
		Tags:       "",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := db.Create(n).Error; err != nil {
		tb.Fatalf("seed note: %v", err)
	}
	return n
}

func LoadLifecycle(tb testing.TB, db *gorm.DB, creatorID int64) *entity.NoteLifecycle {
	tb.Helper()
	var lc entity.NoteLifecycle
	if err := db.Where("creator_id = ?", creatorID).First(&lc).Error; err != nil {
		tb.Fatalf("load lifecycle: %v", err)
	}
	return &lc
}

// CountRows counts the rows of 'model' matching the optional condition.
func CountRows(tb testing.TB, db *gorm.DB, model any, query string, args ...any) int64 {
	tb.Helper()
	var count int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&count).Error; err != nil {
		tb.Fatalf("count rows: %v", err)
	}
	return count
}
