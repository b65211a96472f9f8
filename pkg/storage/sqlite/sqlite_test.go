package sqlite_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/wireline/pkg/storage"
	"github.com/papercomputeco/wireline/pkg/storage/sqlite"
)

// sqliteTestExchange builds a completed exchange record with the given id.
func sqliteTestExchange(id string, createdAt time.Time) *storage.Exchange {
	return &storage.Exchange{
		ID:              id,
		Model:           "test-model",
		Status:          200,
		FinishReason:    "stop",
		PromptChars:     42,
		CompletionChars: 17,
		Streaming:       true,
		Truncated:       false,
		DurationMs:      250,
		CreatedAt:       createdAt,
	}
}

var _ = Describe("SQLiteDriver", func() {
	var (
		driver *sqlite.SQLiteDriver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		driver, err = sqlite.NewSQLiteDriver(":memory:")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if driver != nil {
			driver.Close()
		}
	})

	Describe("NewSQLiteDriver", func() {
		It("creates a driver with file database", func() {
			tmpDir := GinkgoT().TempDir()
			dbPath := filepath.Join(tmpDir, "test.db")

			s, err := sqlite.NewSQLiteDriver(dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()

			// Verify file was created
			_, err = os.Stat(dbPath)
			Expect(err).NotTo(HaveOccurred())
		})

		It("survives reopening the same file", func() {
			tmpDir := GinkgoT().TempDir()
			dbPath := filepath.Join(tmpDir, "test.db")

			s, err := sqlite.NewSQLiteDriver(dbPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Save(ctx, sqliteTestExchange("ex-1", time.Now().UTC()))).To(Succeed())
			Expect(s.Close()).To(Succeed())

			reopened, err := sqlite.NewSQLiteDriver(dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer reopened.Close()

			retrieved, err := reopened.Get(ctx, "ex-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.Model).To(Equal("test-model"))
		})
	})

	Describe("Save and Get", func() {
		It("stores and retrieves an exchange", func() {
			ex := sqliteTestExchange("ex-1", time.Now().UTC())

			Expect(driver.Save(ctx, ex)).To(Succeed())

			retrieved, err := driver.Get(ctx, "ex-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.ID).To(Equal("ex-1"))
			Expect(retrieved.Streaming).To(BeTrue())
			Expect(retrieved.DurationMs).To(Equal(int64(250)))
		})

		It("upserts on duplicate id", func() {
			now := time.Now().UTC()
			Expect(driver.Save(ctx, sqliteTestExchange("ex-1", now))).To(Succeed())

			updated := sqliteTestExchange("ex-1", now)
			updated.Status = 429
			updated.FinishReason = ""
			Expect(driver.Save(ctx, updated)).To(Succeed())

			retrieved, err := driver.Get(ctx, "ex-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.Status).To(Equal(429))

			all, _ := driver.List(ctx)
			Expect(all).To(HaveLen(1))
		})

		It("returns ErrNotFound for non-existent id", func() {
			_, err := driver.Get(ctx, "nonexistent")
			Expect(err).To(HaveOccurred())

			var notFoundErr storage.ErrNotFound
			Expect(err).To(BeAssignableToTypeOf(notFoundErr))
		})

		It("rejects nil exchanges", func() {
			err := driver.Save(ctx, nil)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("nil exchange"))
		})
	})

	Describe("List", func() {
		It("returns exchanges most recent first", func() {
			base := time.Now().UTC().Truncate(time.Second)
			Expect(driver.Save(ctx, sqliteTestExchange("ex-1", base))).To(Succeed())
			Expect(driver.Save(ctx, sqliteTestExchange("ex-2", base.Add(time.Second)))).To(Succeed())
			Expect(driver.Save(ctx, sqliteTestExchange("ex-3", base.Add(2*time.Second)))).To(Succeed())

			all, err := driver.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(3))
			Expect(all[0].ID).To(Equal("ex-3"))
			Expect(all[2].ID).To(Equal("ex-1"))
		})

		It("returns empty result for empty store", func() {
			all, err := driver.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(BeEmpty())
		})
	})
})
