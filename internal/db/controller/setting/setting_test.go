package setting

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.Setting{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func TestGet(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&models.Setting{Name: "seed.state", Value: []byte(`{"version":1}`)}).Error)

	testCases := []struct {
		name          string
		dbParam       *gorm.DB
		settingName   string
		expectedError error
		expectedValue []byte
	}{
		{
			name:          "nil database",
			settingName:   "seed.state",
			expectedError: ErrDBNil,
		},
		{
			name:          "empty name",
			dbParam:       db,
			expectedError: ErrSettingNameEmpty,
		},
		{
			name:          "missing",
			dbParam:       db,
			settingName:   "nope",
			expectedError: ErrSettingNotFound,
		},
		{
			name:          "found",
			dbParam:       db,
			settingName:   "seed.state",
			expectedValue: []byte(`{"version":1}`),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Get(tc.dbParam, tc.settingName)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, s)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedValue, s.Value)
		})
	}
}

func TestSetUpserts(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, Set(db, "k", []byte("one")))
	require.NoError(t, Set(db, "k", []byte("two")))

	var count int64
	require.NoError(t, db.Model(&models.Setting{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	s, err := Get(db, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), s.Value)

	require.ErrorIs(t, Set(nil, "k", nil), ErrDBNil)
	require.ErrorIs(t, Set(db, "", nil), ErrSettingNameEmpty)
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, Set(db, "k", []byte("v")))

	require.NoError(t, Delete(db, "k"))
	require.ErrorIs(t, Delete(db, "k"), ErrSettingNotFound)
	require.ErrorIs(t, Delete(db, ""), ErrSettingNameEmpty)
	require.ErrorIs(t, Delete(nil, "k"), ErrDBNil)
}

func TestJSON(t *testing.T) {
	db := setupTestDB(t)

	type state struct {
		Version int    `json:"version"`
		Admin   string `json:"admin"`
	}

	require.NoError(t, SetJSON(db, "seed.state", state{Version: 2, Admin: "admin"}))

	var got state
	require.NoError(t, GetJSON(db, "seed.state", &got))
	assert.Equal(t, state{Version: 2, Admin: "admin"}, got)

	require.ErrorIs(t, GetJSON(db, "missing", &got), ErrSettingNotFound)

	require.NoError(t, Set(db, "broken", []byte("{")))
	require.Error(t, GetJSON(db, "broken", &got))
}
