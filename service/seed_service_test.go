package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/caseboard/caseboard/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSeedDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func validSeedFiles() map[string]string {
	return map[string]string{
		"companies.csv": "name\nAcme Chemicals\nGranite Corp\n",
		"industries.csv": "name,code\n" +
			"Basic chemicals,C2011\n" +
			"Water treatment,E3600\n",
		"legal_actions.csv": "company,industry,action_type,title,status,date,settlement_amount,settlement_currency,reference_url\n" +
			"Acme Chemicals,Basic chemicals,class action,Groundwater claims,settled,2023-04-12,1250000,USD,https://example.com/case/1\n" +
			"Granite Corp,Water treatment,regulatory action,Permit complaint,ongoing,2024-01-30,,,\n",
	}
}

func TestLoadSeedData(t *testing.T) {
	t.Setenv("SEED_S3_BUCKET", "")
	t.Setenv("SEED_DIR", writeSeedDir(t, validSeedFiles()))

	db := newTestDB(t)
	svc, err := NewSeedService(db, nil)
	require.NoError(t, err)

	require.NoError(t, svc.LoadSeedData())

	var companies []models.Company
	require.NoError(t, db.Order("name").Find(&companies).Error)
	require.Len(t, companies, 2)
	assert.Equal(t, "Acme Chemicals", companies[0].Name)

	var industries []models.Industry
	require.NoError(t, db.Order("name").Find(&industries).Error)
	require.Len(t, industries, 2)
	assert.Equal(t, "E3600", industries[1].Code)

	var actions []models.LegalAction
	require.NoError(t, db.Order("date").Find(&actions).Error)
	require.Len(t, actions, 2)

	// FKs resolve by name.
	assert.Equal(t, companies[0].ID, actions[0].CompanyID)
	assert.Equal(t, industries[0].ID, actions[0].IndustryID)
	assert.Equal(t, 1250000.0, actions[0].SettlementAmount)
	assert.JSONEq(t, `["https://example.com/case/1"]`, string(actions[0].SourceRefs))

	// Rows without a reference get an empty array, not null.
	assert.JSONEq(t, `[]`, string(actions[1].SourceRefs))
	assert.Zero(t, actions[1].SettlementAmount)
}

func TestLoadSeedData_ReplacesPreviousLoad(t *testing.T) {
	t.Setenv("SEED_S3_BUCKET", "")
	t.Setenv("SEED_DIR", writeSeedDir(t, validSeedFiles()))

	db := newTestDB(t)
	svc, err := NewSeedService(db, nil)
	require.NoError(t, err)

	require.NoError(t, svc.LoadSeedData())
	require.NoError(t, svc.LoadSeedData())

	var count int64
	require.NoError(t, db.Model(&models.LegalAction{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestLoadSeedData_UnknownCompanyRollsBack(t *testing.T) {
	files := validSeedFiles()
	files["legal_actions.csv"] = "company,industry,action_type,title,status,date,settlement_amount,settlement_currency,reference_url\n" +
		"Nonexistent Co,Basic chemicals,class action,Some claim,settled,2023-04-12,,,\n"
	t.Setenv("SEED_S3_BUCKET", "")
	t.Setenv("SEED_DIR", writeSeedDir(t, files))

	db := newTestDB(t)
	svc, err := NewSeedService(db, nil)
	require.NoError(t, err)

	// Pre-existing data must survive a failed load.
	fix := seedDashboard(t, db)
	err = svc.LoadSeedData()
	assert.ErrorContains(t, err, "unknown company")

	var count int64
	require.NoError(t, db.Model(&models.LegalAction{}).Count(&count).Error)
	assert.Equal(t, int64(len(fix.actions)), count)
}

func TestLoadSeedData_MissingFile(t *testing.T) {
	files := validSeedFiles()
	delete(files, "industries.csv")
	t.Setenv("SEED_S3_BUCKET", "")
	t.Setenv("SEED_DIR", writeSeedDir(t, files))

	db := newTestDB(t)
	svc, err := NewSeedService(db, nil)
	require.NoError(t, err)

	assert.Error(t, svc.LoadSeedData())
}

func TestNewSeedService_IncompleteS3Config(t *testing.T) {
	t.Setenv("SEED_S3_BUCKET", "seed-bucket")
	t.Setenv("SEED_S3_REGION", "")
	t.Setenv("SEED_S3_ACCESS_KEY", "")
	t.Setenv("SEED_S3_SECRET_KEY", "")

	db := newTestDB(t)
	_, err := NewSeedService(db, nil)
	assert.ErrorContains(t, err, "S3 configuration")
}
