package media

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
)

type fakeUploader struct {
	url   string
	err   error
	calls int
}

func (f *fakeUploader) Upload(context.Context, string, []byte) (string, error) {
	f.calls++
	return f.url, f.err
}

var errSave = errors.New("save error")

func TestServiceUploadRecordsLedger(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO media_objects`).
		WithArgs(pgxmock.AnyArg(), "user-1", "https://media/abc.jpg", KindAdventurePhoto).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	up := &fakeUploader{url: "https://media/abc.jpg"}
	svc := NewService(up, NewLedger(mock), 1<<20, nil)
	url, err := svc.Upload(context.Background(), "user-1", "a.png", pngBytes)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://media/abc.jpg" {
		t.Fatalf("unexpected url %q", url)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestServiceUploadLedgerFailureKeepsURL(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO media_objects`).WillReturnError(errSave)

	svc := NewService(&fakeUploader{url: "https://media/abc.jpg"}, NewLedger(mock), 0, nil)
	url, err := svc.Upload(context.Background(), "user-1", "a.png", pngBytes)
	if err != nil || url == "" {
		t.Fatalf("expected url despite ledger failure, got %q %v", url, err)
	}
}

func TestServiceUploadRejectsBeforeRemoteCall(t *testing.T) {
	up := &fakeUploader{url: "https://media/abc.jpg"}
	svc := NewService(up, nil, 16, nil)

	if _, err := svc.Upload(context.Background(), "user-1", "a.png", nil); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected empty file error, got %v", err)
	}
	if _, err := svc.Upload(context.Background(), "user-1", "a.txt", []byte("just some text")); !errors.Is(err, ErrNotImage) {
		t.Fatalf("expected not image error, got %v", err)
	}
	big := append(append([]byte{}, pngBytes...), make([]byte, 32)...)
	if _, err := svc.Upload(context.Background(), "user-1", "a.png", big); err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("expected size error, got %v", err)
	}
	if up.calls != 0 {
		t.Fatalf("expected no upload calls, got %d", up.calls)
	}
}

func TestServiceUploadErrors(t *testing.T) {
	svc := NewService(&fakeUploader{err: errors.New("quota exceeded")}, nil, 0, nil)
	if _, err := svc.Upload(context.Background(), "user-1", "a.png", pngBytes); err == nil || err.Error() != "quota exceeded" {
		t.Fatalf("expected uploader error verbatim, got %v", err)
	}

	svc = NewService(&fakeUploader{}, nil, 0, nil)
	if _, err := svc.Upload(context.Background(), "user-1", "a.png", pngBytes); !errors.Is(err, ErrNoURL) {
		t.Fatalf("expected no url error, got %v", err)
	}
}

func TestLedgerOrphans(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT m.id, m.user_id, m.url, m.kind, m.created_at`).
		WithArgs("user-1", KindAdventurePhoto).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "url", "kind", "created_at"}).
			AddRow("obj-1", "user-1", "https://media/abc.jpg", KindAdventurePhoto, time.Now()))

	svc := NewService(&fakeUploader{}, NewLedger(mock), 0, nil)
	objects, err := svc.Orphans(context.Background(), "user-1")
	if err != nil || len(objects) != 1 || objects[0].URL != "https://media/abc.jpg" {
		t.Fatalf("orphans: %v %+v", err, objects)
	}
}

func TestLedgerOrphansQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT m.id`).WithArgs("user-1", KindAdventurePhoto).WillReturnError(errSave)
	if _, err := NewLedger(mock).Orphans(context.Background(), "user-1"); !errors.Is(err, errSave) {
		t.Fatalf("expected error, got %v", err)
	}
}

func TestServiceOrphansWithoutLedger(t *testing.T) {
	objects, err := NewService(&fakeUploader{}, nil, 0, nil).Orphans(context.Background(), "user-1")
	if err != nil || objects == nil || len(objects) != 0 {
		t.Fatalf("expected empty list")
	}
}

func TestServiceIssued(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM media_objects`).
		WithArgs("user-1", "https://media/abc.jpg").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM media_objects`).
		WithArgs("user-1", "https://attacker.example/x.jpg").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	svc := NewService(&fakeUploader{}, NewLedger(mock), 0, nil)
	if ok, err := svc.Issued(context.Background(), "user-1", "https://media/abc.jpg"); err != nil || !ok {
		t.Fatalf("expected uploaded url to be issued: %v %v", ok, err)
	}
	if ok, err := svc.Issued(context.Background(), "user-1", "https://attacker.example/x.jpg"); err != nil || ok {
		t.Fatalf("expected foreign url to be refused: %v %v", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}

	if ok, _ := NewService(&fakeUploader{}, nil, 0, nil).Issued(context.Background(), "user-1", "https://media/abc.jpg"); ok {
		t.Fatalf("expected nothing issued without a ledger")
	}
}
