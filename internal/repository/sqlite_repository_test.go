package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func openTestRepo(t *testing.T) *SQLiteImageRepository {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seed(t *testing.T, repo ImageRepository, owner string, n int) []*Image {
	t.Helper()
	var out []*Image
	for i := 0; i < n; i++ {
		img := &Image{
			OwnerID:  owner,
			BlobKey:  fmt.Sprintf("%s-%d", owner, i),
			URL:      fmt.Sprintf("http://blobs/%s-%d", owner, i),
			FileName: fmt.Sprintf("img%d.png", i),
			MimeType: "image/png",
			Size:     int64(100 + i),
		}
		if err := repo.Create(context.Background(), img); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		out = append(out, img)
	}
	return out
}

func TestCreateAndGet(t *testing.T) {
	repo := openTestRepo(t)
	imgs := seed(t, repo, "alice", 2)

	if imgs[0].ID == 0 || imgs[1].ID <= imgs[0].ID {
		t.Fatalf("Expected increasing ids, got %d, %d", imgs[0].ID, imgs[1].ID)
	}

	got, err := repo.Get(context.Background(), imgs[1].ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.FileName != "img1.png" || got.Size != 101 || got.RaffleID != nil || got.ImageOrder != nil {
		t.Errorf("Unexpected image %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("Expected created_at to round-trip")
	}

	if _, err := repo.Get(context.Background(), 999); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("Expected ErrImageNotFound, got %v", err)
	}
}

func TestListUnattachedAndCount(t *testing.T) {
	repo := openTestRepo(t)
	seed(t, repo, "alice", 3)
	seed(t, repo, "bob", 1)
	ctx := context.Background()

	list, err := repo.ListUnattached(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 images, got %d", len(list))
	}
	n, err := repo.CountForOwner(ctx, "bob")
	if err != nil || n != 1 {
		t.Errorf("Expected bob to have 1 image, got %d (%v)", n, err)
	}
}

func TestAttachOrdered(t *testing.T) {
	repo := openTestRepo(t)
	imgs := seed(t, repo, "alice", 3)
	ctx := context.Background()

	err := repo.AttachOrdered(ctx, 7, []ImageOrder{{ID: imgs[2].ID, Order: 0}, {ID: imgs[0].ID, Order: 1}})
	if err != nil {
		t.Fatalf("AttachOrdered failed: %v", err)
	}

	attached, err := repo.ListByRaffle(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(attached) != 2 || attached[0].ID != imgs[2].ID || attached[1].ID != imgs[0].ID {
		t.Fatalf("Unexpected attached order %+v", attached)
	}
	if *attached[1].ImageOrder != 1 || *attached[1].RaffleID != 7 {
		t.Errorf("Unexpected attached image %+v", attached[1])
	}

	unattached, _ := repo.ListUnattached(ctx, "alice")
	if len(unattached) != 1 || unattached[0].ID != imgs[1].ID {
		t.Errorf("Expected only the middle image unattached, got %+v", unattached)
	}

	// re-saving without an image detaches it
	if err := repo.AttachOrdered(ctx, 7, []ImageOrder{{ID: imgs[0].ID, Order: 0}}); err != nil {
		t.Fatal(err)
	}
	attached, _ = repo.ListByRaffle(ctx, 7)
	if len(attached) != 1 {
		t.Errorf("Expected 1 attached image, got %d", len(attached))
	}
}

func TestAttachOrdered_Failures(t *testing.T) {
	repo := openTestRepo(t)
	imgs := seed(t, repo, "alice", 2)
	ctx := context.Background()

	err := repo.AttachOrdered(ctx, 1, []ImageOrder{{ID: imgs[0].ID, Order: 0}, {ID: imgs[0].ID, Order: 1}})
	if !errors.Is(err, ErrDuplicateImage) {
		t.Errorf("Expected ErrDuplicateImage, got %v", err)
	}

	err = repo.AttachOrdered(ctx, 1, []ImageOrder{{ID: imgs[0].ID, Order: 0}, {ID: 999, Order: 1}})
	if !errors.Is(err, ErrImageNotFound) {
		t.Errorf("Expected ErrImageNotFound, got %v", err)
	}

	// the failed transaction left nothing attached
	attached, _ := repo.ListByRaffle(ctx, 1)
	if len(attached) != 0 {
		t.Errorf("Expected rollback, got %d attached", len(attached))
	}
}

func TestDelete(t *testing.T) {
	repo := openTestRepo(t)
	imgs := seed(t, repo, "alice", 1)
	ctx := context.Background()

	if err := repo.Delete(ctx, imgs[0].ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := repo.Delete(ctx, imgs[0].ID); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("Expected ErrImageNotFound, got %v", err)
	}
}
