package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/hospiblog/internal/database"
	"github.com/hitoshi/hospiblog/internal/model"
)

// 各PostgresリポジトリがインターフェースをみたすことをNew関数経由で検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ HospitalRepository = NewPostgresHospitalRepo(nil)
	var _ AdminRepository = NewPostgresAdminRepo(nil)
	var _ BlogPostRepository = NewPostgresBlogPostRepo(nil)
	var _ BlogImageRepository = NewPostgresBlogImageRepo(nil)
}

type fakeResult struct {
	affected int64
	err      error
}

func (f fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (f fakeResult) RowsAffected() (int64, error) { return f.affected, f.err }

func TestRequireAffected(t *testing.T) {
	if err := requireAffected(fakeResult{affected: 1}); err != nil {
		t.Errorf("1行更新はnilを返すべき: %v", err)
	}
	if err := requireAffected(fakeResult{affected: 0}); !errors.Is(err, ErrNotFound) {
		t.Errorf("0行更新はErrNotFoundを返すべき: %v", err)
	}
	if err := requireAffected(fakeResult{err: errors.New("driver")}); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("RowsAffectedの失敗はErrNotFound以外のエラーを返すべき: %v", err)
	}
}

func TestNonNil(t *testing.T) {
	if got := nonNil(nil); got == nil || len(got) != 0 {
		t.Errorf("nonNil(nil) = %#v, want empty slice", got)
	}
	in := []string{"a"}
	if got := nonNil(in); len(got) != 1 || got[0] != "a" {
		t.Errorf("nonNil should return the input unchanged, got %v", got)
	}
}

func TestIsUUID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"3f2b8c1e-9d4a-4e6b-8c2f-1a7d5e9b0c34", true},
		{"abc", false},
		{"", false},
		{"3f2b8c1e9d4a4e6b8c2f1a7d5e9b0c34", false},
		{"urn:uuid:3f2b8c1e-9d4a-4e6b-8c2f-1a7d5e9b0c34", false},
		{"3f2b8c1e-9d4a-4e6b-8c2f-1a7d5e9b0cZZ", false},
	}
	for _, tt := range tests {
		if got := isUUID(tt.id); got != tt.want {
			t.Errorf("isUUID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

// 不正な形式のIDはクエリを発行せずに該当なしとして扱う（DB接続は不要）
func TestPostgresRepos_MalformedIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	hospitals := NewPostgresHospitalRepo(nil)
	posts := NewPostgresBlogPostRepo(nil)
	images := NewPostgresBlogImageRepo(nil)

	if h, err := hospitals.FindByID(ctx, "abc"); h != nil || err != nil {
		t.Errorf("hospitals.FindByID = %v, %v", h, err)
	}
	if err := hospitals.UpdatePassword(ctx, "abc", "hash", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("hospitals.UpdatePassword = %v", err)
	}
	if err := hospitals.UpdateProfile(ctx, &model.Hospital{ID: "abc"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("hospitals.UpdateProfile = %v", err)
	}
	if p, err := posts.FindByID(ctx, "x"); p != nil || err != nil {
		t.Errorf("posts.FindByID = %v, %v", p, err)
	}
	if list, err := posts.ListSummariesByHospital(ctx, "x"); err != nil || len(list) != 0 {
		t.Errorf("posts.ListSummariesByHospital = %v, %v", list, err)
	}
	if err := posts.UpdateContent(ctx, "x", "본문", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Errorf("posts.UpdateContent = %v", err)
	}
	if list, err := images.ListByPost(ctx, "x"); err != nil || len(list) != 0 {
		t.Errorf("images.ListByPost = %v, %v", list, err)
	}
	if list, err := images.ListByPostAndOrder(ctx, "x", 0); err != nil || len(list) != 0 {
		t.Errorf("images.ListByPostAndOrder = %v, %v", list, err)
	}
	if err := images.DeleteByID(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("images.DeleteByID = %v", err)
	}
}

// --- 以下はPostgreSQLが利用可能な場合のみ実行する ---

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL が未設定のためスキップ")
	}

	db, err := database.Open(dbURL)
	if err != nil {
		t.Fatalf("データベースのオープンに失敗: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("テスト用データベースに接続できません（スキップ）: %v", err)
	}
	if err := database.RunMigrations(dbURL); err != nil {
		t.Fatalf("マイグレーションに失敗: %v", err)
	}
	if _, err := db.Exec(`TRUNCATE blog_images, blog_posts, admins, hospitals CASCADE`); err != nil {
		t.Fatalf("TRUNCATEに失敗: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestHospital(handle string) *model.Hospital {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.Hospital{
		ID:                 uuid.NewString(),
		HospitalID:         handle,
		PasswordHash:       "hash",
		Department:         model.DefaultDepartment,
		BlogPlatform:       model.DefaultBlogPlatform,
		MustChangePassword: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func TestPostgresHospitalRepo_Create_DuplicateHandle(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresHospitalRepo(db)
	ctx := context.Background()

	if err := repo.Create(ctx, newTestHospital("seoul-clinic")); err != nil {
		t.Fatalf("1件目の作成に失敗: %v", err)
	}
	err := repo.Create(ctx, newTestHospital("seoul-clinic"))
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("2件目はErrDuplicateKeyであるべき: %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("一覧取得に失敗: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("病院数 = %d, want 1", len(list))
	}
}

func TestPostgresHospitalRepo_UpdateProfileAndPassword(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresHospitalRepo(db)
	ctx := context.Background()

	h := newTestHospital("busan-clinic")
	if err := repo.Create(ctx, h); err != nil {
		t.Fatalf("作成に失敗: %v", err)
	}

	h.HospitalName = "부산여성병원"
	h.MainServices = []string{"산전검사", "난임"}
	h.IsInitialSetupComplete = true
	h.UpdatedAt = time.Now()
	if err := repo.UpdateProfile(ctx, h); err != nil {
		t.Fatalf("プロフィール更新に失敗: %v", err)
	}
	if err := repo.UpdatePassword(ctx, h.ID, "new-hash", false); err != nil {
		t.Fatalf("パスワード更新に失敗: %v", err)
	}

	got, err := repo.FindByHospitalID(ctx, "busan-clinic")
	if err != nil || got == nil {
		t.Fatalf("取得に失敗: %v", err)
	}
	if got.HospitalName != "부산여성병원" || len(got.MainServices) != 2 {
		t.Errorf("プロフィールが反映されていません: %+v", got)
	}
	if got.PasswordHash != "new-hash" || got.MustChangePassword {
		t.Errorf("パスワードが反映されていません: hash=%q must_change=%v", got.PasswordHash, got.MustChangePassword)
	}

	if err := repo.UpdatePassword(ctx, uuid.NewString(), "x", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("存在しないIDはErrNotFoundであるべき: %v", err)
	}
}

func TestPostgresBlogImageRepo_SlotQueriesAndReferences(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	h := newTestHospital("img-clinic")
	if err := NewPostgresHospitalRepo(db).Create(ctx, h); err != nil {
		t.Fatalf("病院作成に失敗: %v", err)
	}
	post := &model.BlogPost{
		ID: uuid.NewString(), HospitalID: h.ID, Title: "t", Topic: "자궁근종",
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	if err := NewPostgresBlogPostRepo(db).Create(ctx, post); err != nil {
		t.Fatalf("記事作成に失敗: %v", err)
	}

	images := NewPostgresBlogImageRepo(db)
	for i := 0; i < model.MaxImagesPerPost; i++ {
		img := &model.BlogImage{
			ID: uuid.NewString(), BlogPostID: post.ID,
			StoragePath: uuid.NewString() + ".png", PublicURL: "https://cdn/x.png",
			ImageType: model.ImageTypeMedical, DisplayOrder: i, CreatedAt: time.Now(),
		}
		if err := images.Create(ctx, img); err != nil {
			t.Fatalf("画像作成に失敗: %v", err)
		}
	}

	dup := &model.BlogImage{
		ID: uuid.NewString(), BlogPostID: post.ID,
		StoragePath: uuid.NewString() + ".png", PublicURL: "https://cdn/y.png",
		ImageType: model.ImageTypeCTA, DisplayOrder: 2, CreatedAt: time.Now(),
	}
	if err := images.Create(ctx, dup); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("使用中のスロットへの作成はErrDuplicateKeyを返すべき: %v", err)
	}

	slot, err := images.ListByPostAndOrder(ctx, post.ID, 2)
	if err != nil {
		t.Fatalf("スロット取得に失敗: %v", err)
	}
	if len(slot) != 1 || slot[0].DisplayOrder != 2 {
		t.Fatalf("スロット2の画像 = %+v", slot)
	}

	refs, err := images.FindReferencedPaths(ctx, []string{slot[0].StoragePath, "orphan.png"})
	if err != nil {
		t.Fatalf("参照パス取得に失敗: %v", err)
	}
	if !refs[slot[0].StoragePath] || refs["orphan.png"] {
		t.Errorf("参照判定が不正: %v", refs)
	}

	if err := images.DeleteByID(ctx, slot[0].ID); err != nil {
		t.Fatalf("削除に失敗: %v", err)
	}
	all, err := images.ListByPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("一覧取得に失敗: %v", err)
	}
	if len(all) != model.MaxImagesPerPost-1 {
		t.Errorf("削除後の画像数 = %d, want %d", len(all), model.MaxImagesPerPost-1)
	}
}
