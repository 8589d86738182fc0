package importapp

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/earthcare/backend/internal/domain/bulk"
	"github.com/earthcare/backend/internal/domain/shared"
	csvimport "github.com/earthcare/backend/internal/infrastructure/import"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected a domain error, got %v", err)
	assert.Equal(t, code, domainErr.Code)
}

func TestImportService_Upload(t *testing.T) {
	ctx := context.Background()

	upload := func(h *importHarness, in UploadInput) (*UploadResult, error) {
		if in.UserID == uuid.Nil {
			in.UserID = h.userID
		}
		if in.WorkspaceID == uuid.Nil {
			in.WorkspaceID = h.workspaceID
		}
		if in.FileName == "" {
			in.FileName = "people.csv"
		}
		if in.ContentType == "" {
			in.ContentType = "text/csv"
		}
		return h.service.Upload(ctx, in)
	}

	t.Run("creates an uploaded job and keeps the file", func(t *testing.T) {
		h := newImportHarness(t)
		data := []byte("\xEF\xBB\xBFFirst Name,Last Name,Email\nAna,Silva,ana@example.org\n\nKwame,Mensah,\n")

		result, err := upload(h, UploadInput{EntityType: "person", FileName: "../exports/people.csv", Data: data})
		require.NoError(t, err)

		job := result.Job
		assert.Equal(t, []string{"First Name", "Last Name", "Email"}, result.Headers)
		assert.Equal(t, bulk.JobStatusUploaded, job.Status)
		assert.Equal(t, bulk.EntityPerson, job.EntityType)
		assert.Equal(t, 2, job.TotalRows, "blank lines are not rows")
		assert.Equal(t, "people.csv", job.FileName)
		assert.Equal(t, int64(len(data)), job.FileSize)
		assert.Equal(t, h.userID, job.CreatedBy)
		assert.Equal(t, h.workspaceID, job.WorkspaceID)

		stored, err := h.files.Get(ctx, job.FileKey)
		require.NoError(t, err)
		assert.Equal(t, data, stored)

		saved := h.reload(t, job.ID)
		assert.Equal(t, bulk.JobStatusUploaded, saved.Status)
		assert.Empty(t, h.runner.Triggered(), "upload does not start processing")
	})

	t.Run("accepts a .csv name with a generic content type", func(t *testing.T) {
		h := newImportHarness(t)
		_, err := upload(h, UploadInput{
			EntityType:  "enterprise",
			ContentType: "application/octet-stream",
			FileName:    "orgs.CSV",
			Data:        []byte("Name\nGreen Valley\n"),
		})
		assert.NoError(t, err)
	})

	t.Run("text that starts like a binary signature is still csv", func(t *testing.T) {
		h := newImportHarness(t)
		for _, data := range []string{
			"ID3 code,Name\nx-1,Acme\n",
			"%PDF ref,Name\np-9,Green Valley\n",
			"PK id,Name\n7,Río Verde\n",
		} {
			result, err := upload(h, UploadInput{EntityType: "enterprise", Data: []byte(data)})
			require.NoError(t, err, data)
			assert.Equal(t, 1, result.Job.TotalRows)
		}
	})

	tests := []struct {
		name  string
		in    UploadInput
		code  string
		limit int64
	}{
		{
			name: "unknown entity type",
			in:   UploadInput{EntityType: "invoice", Data: []byte("a\n1\n")},
			code: csvimport.ErrCodeImportInvalidEntity,
		},
		{
			name:  "file over the size limit",
			in:    UploadInput{EntityType: "person", Data: []byte("First,Last\nAna,Silva\n")},
			code:  csvimport.ErrCodeImportFileTooLarge,
			limit: 8,
		},
		{
			name: "zero byte file",
			in:   UploadInput{EntityType: "person", Data: []byte{}},
			code: csvimport.ErrCodeImportEmptyFile,
		},
		{
			name: "header only",
			in:   UploadInput{EntityType: "person", Data: []byte("First,Last\n")},
			code: csvimport.ErrCodeImportEmptyFile,
		},
		{
			name: "not a csv upload",
			in: UploadInput{
				EntityType:  "person",
				FileName:    "photo.png",
				ContentType: "image/png",
				Data:        []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"),
			},
			code: csvimport.ErrCodeImportInvalidFileType,
		},
		{
			name: "binary content behind a csv name",
			in: UploadInput{
				EntityType: "person",
				FileName:   "people.csv",
				Data:       []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x01"),
			},
			code: csvimport.ErrCodeImportInvalidFileType,
		},
		{
			name: "duplicate header",
			in:   UploadInput{EntityType: "person", Data: []byte("Email,Email\na@example.org,b@example.org\n")},
			code: csvimport.ErrCodeImportInvalidHeader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h *importHarness
			if tt.limit > 0 {
				h = newImportHarness(t, withMaxFileSize(tt.limit))
			} else {
				h = newImportHarness(t)
			}

			_, err := upload(h, tt.in)
			assertDomainCode(t, err, tt.code)

			var count int64
			require.NoError(t, h.db.Table("import_jobs").Count(&count).Error)
			assert.Zero(t, count, "rejected uploads create no job")
		})
	}
}

func TestImportService_Configure(t *testing.T) {
	ctx := context.Background()

	newUploaded := func(t *testing.T, h *importHarness) *bulk.ImportJob {
		result, err := h.service.Upload(ctx, UploadInput{
			UserID:      h.userID,
			WorkspaceID: h.workspaceID,
			EntityType:  "person",
			FileName:    "people.csv",
			ContentType: "text/csv",
			Data:        []byte("First,Last,Mail\nAna,Silva,ana@example.org\n"),
		})
		require.NoError(t, err)
		return result.Job
	}

	t.Run("stores mapping and strategy and schedules processing", func(t *testing.T) {
		h := newImportHarness(t)
		job := newUploaded(t, h)

		configured, err := h.service.Configure(ctx, ConfigureInput{
			UserID:   h.userID,
			JobID:    job.ID,
			Mapping:  map[string]string{"First": "first_name", "Last": "last_name", "Mail": "email"},
			Strategy: "update",
		})
		require.NoError(t, err)
		assert.Equal(t, bulk.JobStatusMapping, configured.Status)

		saved := h.reload(t, job.ID)
		assert.Equal(t, bulk.JobStatusMapping, saved.Status)
		assert.Equal(t, bulk.StrategyUpdate, saved.Strategy)
		assert.Equal(t, bulk.ColumnMapping{"First": "first_name", "Last": "last_name", "Mail": "email"}, saved.Mapping)
		assert.Equal(t, []uuid.UUID{job.ID}, h.runner.Triggered())
	})

	t.Run("invalid strategy", func(t *testing.T) {
		h := newImportHarness(t)
		job := newUploaded(t, h)

		_, err := h.service.Configure(ctx, ConfigureInput{
			UserID: h.userID, JobID: job.ID,
			Mapping:  map[string]string{"First": "first_name"},
			Strategy: "merge",
		})
		assertDomainCode(t, err, csvimport.ErrCodeImportInvalidStrategy)
		assert.Equal(t, bulk.JobStatusUploaded, h.reload(t, job.ID).Status)
	})

	t.Run("unknown target field", func(t *testing.T) {
		h := newImportHarness(t)
		job := newUploaded(t, h)

		_, err := h.service.Configure(ctx, ConfigureInput{
			UserID: h.userID, JobID: job.ID,
			Mapping:  map[string]string{"First": "nickname"},
			Strategy: "skip",
		})
		assertDomainCode(t, err, csvimport.ErrCodeImportInvalidMapping)
	})

	t.Run("empty mapping", func(t *testing.T) {
		h := newImportHarness(t)
		job := newUploaded(t, h)

		_, err := h.service.Configure(ctx, ConfigureInput{
			UserID: h.userID, JobID: job.ID,
			Mapping:  map[string]string{"First": ""},
			Strategy: "skip",
		})
		assertDomainCode(t, err, csvimport.ErrCodeImportInvalidMapping)
	})

	t.Run("job of another user is not found", func(t *testing.T) {
		h := newImportHarness(t)
		job := newUploaded(t, h)

		_, err := h.service.Configure(ctx, ConfigureInput{
			UserID: uuid.New(), JobID: job.ID,
			Mapping:  map[string]string{"First": "first_name"},
			Strategy: "skip",
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("configuring twice is rejected", func(t *testing.T) {
		h := newImportHarness(t)
		job := newUploaded(t, h)
		in := ConfigureInput{
			UserID: h.userID, JobID: job.ID,
			Mapping:  map[string]string{"First": "first_name", "Last": "last_name"},
			Strategy: "skip",
		}

		_, err := h.service.Configure(ctx, in)
		require.NoError(t, err)
		_, err = h.service.Configure(ctx, in)
		assertDomainCode(t, err, "INVALID_STATE")
		assert.Len(t, h.runner.Triggered(), 1)
	})
}

func TestImportService_GetStatus(t *testing.T) {
	ctx := context.Background()
	h := newImportHarness(t, withStatusErrorLimit(2))

	rows := []string{
		",https://a.example,,",
		"Valid Org,,,",
		",https://b.example,,",
		",https://c.example,,",
	}
	job := h.configuredJob(t, bulk.EntityEnterprise, enterpriseCSV(rows...), enterpriseMapping, bulk.StrategySkip)
	h.runJob(t, job.ID)

	status, err := h.service.GetStatus(ctx, h.userID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, bulk.JobStatusCompleted, status.Job.Status)
	assert.Equal(t, 4, status.Job.ProcessedRows)
	assert.Equal(t, 3, status.Job.FailedRows)
	require.Len(t, status.Errors, 2)
	assert.Equal(t, 1, status.Errors[0].RowNumber)
	assert.Equal(t, 3, status.Errors[1].RowNumber)
	assert.True(t, status.HasMoreErrors)

	t.Run("no errors", func(t *testing.T) {
		clean := h.configuredJob(t, bulk.EntityEnterprise, enterpriseCSV("Another Org,,,"), enterpriseMapping, bulk.StrategySkip)
		h.runJob(t, clean.ID)

		status, err := h.service.GetStatus(ctx, h.userID, clean.ID)
		require.NoError(t, err)
		assert.Empty(t, status.Errors)
		assert.NotNil(t, status.Errors)
		assert.False(t, status.HasMoreErrors)
	})

	t.Run("other user", func(t *testing.T) {
		_, err := h.service.GetStatus(ctx, uuid.New(), job.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestImportService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels a configured job before it runs", func(t *testing.T) {
		h := newImportHarness(t)
		job := h.configuredJob(t, bulk.EntityEnterprise, enterpriseCSV("Green Valley,,,"), enterpriseMapping, bulk.StrategySkip)

		cancelled, err := h.service.Cancel(ctx, h.userID, job.ID)
		require.NoError(t, err)
		assert.Equal(t, bulk.JobStatusCancelled, cancelled.Status)
		assert.NotNil(t, cancelled.CompletedAt)

		// A late run finds nothing to claim
		done := h.runJob(t, job.ID)
		assert.Equal(t, bulk.JobStatusCancelled, done.Status)
		count, err := h.enterprises.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("terminal job cannot be cancelled", func(t *testing.T) {
		h := newImportHarness(t)
		job := h.configuredJob(t, bulk.EntityEnterprise, enterpriseCSV("Green Valley,,,"), enterpriseMapping, bulk.StrategySkip)
		h.runJob(t, job.ID)

		_, err := h.service.Cancel(ctx, h.userID, job.ID)
		assertDomainCode(t, err, "INVALID_STATE")
		assert.Equal(t, bulk.JobStatusCompleted, h.reload(t, job.ID).Status)
	})

	t.Run("other user", func(t *testing.T) {
		h := newImportHarness(t)
		job := h.configuredJob(t, bulk.EntityEnterprise, enterpriseCSV("Green Valley,,,"), enterpriseMapping, bulk.StrategySkip)

		_, err := h.service.Cancel(ctx, uuid.New(), job.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestImportService_ListHistory(t *testing.T) {
	ctx := context.Background()
	h := newImportHarness(t)

	first := h.configuredJob(t, bulk.EntityEnterprise, enterpriseCSV("Green Valley,,,"), enterpriseMapping, bulk.StrategySkip)
	h.runJob(t, first.ID)
	h.configuredJob(t, bulk.EntityPerson, "First,Last\nAna,Silva\n",
		map[string]string{"First": "first_name", "Last": "last_name"}, bulk.StrategySkip)

	t.Run("all jobs newest first", func(t *testing.T) {
		result, err := h.service.ListHistory(ctx, h.userID, HistoryFilter{}, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(2), result.TotalCount)
		require.Len(t, result.Items, 2)
		assert.Equal(t, bulk.EntityPerson, result.Items[0].EntityType)
	})

	t.Run("filter by entity and status", func(t *testing.T) {
		result, err := h.service.ListHistory(ctx, h.userID, HistoryFilter{EntityType: "enterprise", Status: "completed"}, 1, 20)
		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, first.ID, result.Items[0].ID)
	})

	t.Run("page size is capped", func(t *testing.T) {
		result, err := h.service.ListHistory(ctx, h.userID, HistoryFilter{}, 0, 1000)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Page)
		assert.Equal(t, 100, result.PageSize)
	})

	t.Run("second page with filters applied", func(t *testing.T) {
		result, err := h.service.ListHistory(ctx, h.userID, HistoryFilter{EntityType: "enterprise"}, 2, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.TotalCount)
		assert.Equal(t, 2, result.Page)
		assert.Equal(t, 1, result.PageSize)
		assert.Empty(t, result.Items)

		result, err = h.service.ListHistory(ctx, h.userID, HistoryFilter{}, 2, 1)
		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, first.ID, result.Items[0].ID)
	})

	t.Run("other users see nothing", func(t *testing.T) {
		result, err := h.service.ListHistory(ctx, uuid.New(), HistoryFilter{}, 1, 20)
		require.NoError(t, err)
		assert.Zero(t, result.TotalCount)
	})

	t.Run("invalid filters", func(t *testing.T) {
		_, err := h.service.ListHistory(ctx, h.userID, HistoryFilter{EntityType: "invoice"}, 1, 20)
		assertDomainCode(t, err, csvimport.ErrCodeImportInvalidEntity)

		_, err = h.service.ListHistory(ctx, h.userID, HistoryFilter{Status: "paused"}, 1, 20)
		assertDomainCode(t, err, "INVALID_INPUT")
	})
}

func TestImportService_ErrorsListingAndExport(t *testing.T) {
	ctx := context.Background()
	h := newImportHarness(t)

	job := h.configuredJob(t, bulk.EntityEnterprise, enterpriseCSV(
		",https://a.example,,",
		"Good Org,,,",
		"Bad Site,\"not, a url\",,",
	), enterpriseMapping, bulk.StrategySkip)
	h.runJob(t, job.ID)

	t.Run("pages through row errors", func(t *testing.T) {
		page, err := h.service.ListErrors(ctx, h.userID, job.ID, 2, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.TotalCount)
		require.Len(t, page.Items, 1)
		assert.Equal(t, 3, page.Items[0].RowNumber)
	})

	t.Run("exports every row error as csv", func(t *testing.T) {
		data, fileName, err := h.service.ExportErrorsCSV(ctx, h.userID, job.ID)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(fileName, "import_errors_enterprise_"))
		assert.True(t, strings.HasSuffix(fileName, ".csv"))

		records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, []string{"row", "error_type", "message", "raw_data"}, records[0])
		assert.Equal(t, "1", records[1][0])
		assert.Equal(t, "validation", records[1][1])
		assert.Contains(t, records[1][2], "name: is required")
		assert.Equal(t, "3", records[2][0])
		assert.Contains(t, records[2][3], `"Website":"not, a url"`)
	})

	t.Run("other user", func(t *testing.T) {
		_, _, err := h.service.ExportErrorsCSV(ctx, uuid.New(), job.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
