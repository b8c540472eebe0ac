package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestDailyCloseRepositoryLatestBefore(t *testing.T) {
	cutoff := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("returns the newest close before the cutoff", func(t *testing.T) {
		mockDB, mock := newMockDB(t)
		repo := &DailyCloseRepository{db: mockDB}

		rows := sqlmock.NewRows([]string{"id", "symbol", "date", "close"}).
			AddRow(uint(3), "BTC", cutoff.AddDate(0, 0, -1), 64100.25)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "daily_closes" WHERE symbol = $1 AND date < $2 ORDER BY date DESC,"daily_closes"."id" LIMIT $3`)).
			WithArgs("BTC", cutoff, 1).
			WillReturnRows(rows)

		result, err := repo.LatestBefore(context.Background(), "BTC", cutoff)
		if err != nil {
			t.Fatalf("unexpected error fetching close: %v", err)
		}

		if result == nil {
			t.Fatal("expected a close, got nil")
		}

		if result.Close.InexactFloat64() != 64100.25 {
			t.Fatalf("unexpected close returned: %+v", result)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet sqlmock expectations: %v", err)
		}
	})

	t.Run("returns nil without error when no close exists", func(t *testing.T) {
		mockDB, mock := newMockDB(t)
		repo := &DailyCloseRepository{db: mockDB}

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "daily_closes" WHERE symbol = $1 AND date < $2 ORDER BY date DESC,"daily_closes"."id" LIMIT $3`)).
			WithArgs("DOGE", cutoff, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "symbol", "date", "close"}))

		result, err := repo.LatestBefore(context.Background(), "DOGE", cutoff)
		if err != nil {
			t.Fatalf("expected missing close to be swallowed, got error: %v", err)
		}

		if result != nil {
			t.Fatalf("expected nil for missing close, got: %+v", result)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet sqlmock expectations: %v", err)
		}
	})
}
