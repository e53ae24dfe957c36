package implementation

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"care-advisor-be/internal/entity"
	"care-advisor-be/internal/model"
	"care-advisor-be/pkg/database"
	"care-advisor-be/pkg/profile"
	"care-advisor-be/pkg/reference"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Load .env from root
	if err := godotenv.Load("../../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestReferenceRepositoryRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewReferenceRepository(db)
	ctx := context.Background()

	id := "it_" + uuid.NewString()[:8]
	t.Cleanup(func() {
		db.Where("id = ?", id).Delete(&model.ReferenceRecord{})
	})

	err := repo.Create(ctx, reference.Record{
		ID:    id,
		Kind:  reference.KindCase,
		Title: "integration case",
		Date:  "2024-02-01",
		Attributes: reference.Attributes{
			"delivery_type": "顺产",
			"concerns":      []string{"体重恢复"},
			"child_count":   1,
		},
		Payload: []byte(`{"result":"ok"}`),
	})
	require.NoError(t, err)

	records, err := repo.FindAllByKind(ctx, reference.KindCase)
	require.NoError(t, err)

	var found *reference.Record
	for i := range records {
		if records[i].ID == id {
			found = &records[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "integration case", found.Title)
	assert.JSONEq(t, `{"result":"ok"}`, string(found.Payload))

	// jsonb numbers come back as json.Number and still score
	score := reference.CaseScheme.Score(reference.Attributes{"delivery_type": "顺产", "child_count": 1}, found.Attributes)
	assert.Equal(t, 4, score)
}

func TestProfileSnapshotRepositoryLatest(t *testing.T) {
	db := openTestDB(t)
	repo := NewProfileSnapshotRepository(db)
	ctx := context.Background()

	sessionID := "it-" + uuid.NewString()
	t.Cleanup(func() {
		db.Where("session_id = ?", sessionID).Delete(&model.ProfileSnapshot{})
	})

	first := &entity.ProfileSnapshot{SessionId: sessionID, Stage: "tour", Profile: profile.Profile{Name: profile.String("张娜")}}
	require.NoError(t, repo.Create(ctx, first))
	assert.NotEqual(t, uuid.Nil, first.Id)

	second := &entity.ProfileSnapshot{
		SessionId: sessionID,
		Stage:     "consultation",
		Profile:   profile.Profile{Name: profile.String("张娜"), Concerns: []string{"母乳喂养"}},
		History:   []profile.Entry{{Role: "customer", Content: "奶水不够"}},
		CreatedAt: first.CreatedAt.Add(time.Second),
	}
	require.NoError(t, repo.Create(ctx, second))

	latest, err := repo.FindLatestBySessionId(ctx, sessionID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "consultation", latest.Stage)
	assert.Equal(t, []string{"母乳喂养"}, latest.Profile.Concerns)
	require.Len(t, latest.History, 1)

	missing, err := repo.FindLatestBySessionId(ctx, "it-missing-"+uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)
}
