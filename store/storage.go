package store

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"sync"

	"intellidocs/model"
	"intellidocs/types"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

const defaultTopK = 5

// VectorStorer indexes document chunks and answers top-k similarity queries.
// Upsert embeds the chunks and atomically replaces whatever was indexed for
// the document before. Both backends rank by cosine similarity and break
// ties by (doc_id, chunk_idx) ascending.
type VectorStorer interface {
	Upsert(ctx context.Context, docID string, chunks []string) error
	Search(ctx context.Context, query string, topK int) ([]types.SearchResult, error)
}

// docLocks serializes upserts per document. Upserts on different documents
// run in parallel. Entries are reference counted and dropped on release, so
// the map only holds documents with an upsert in flight.
type docLocks struct {
	mu    sync.Mutex
	locks map[string]*docLock
}

type docLock struct {
	sync.Mutex
	refs int
}

func newDocLocks() *docLocks {
	return &docLocks{locks: make(map[string]*docLock)}
}

// acquire blocks until the caller holds docID's lock.
func (d *docLocks) acquire(docID string) *docLock {
	d.mu.Lock()
	l, ok := d.locks[docID]
	if !ok {
		l = &docLock{}
		d.locks[docID] = l
	}
	l.refs++
	d.mu.Unlock()

	l.Lock()
	return l
}

func (d *docLocks) release(docID string, l *docLock) {
	l.Unlock()

	d.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(d.locks, docID)
	}
	d.mu.Unlock()
}

type PostgresStore struct {
	pool     *pgxpool.Pool
	embedder model.EmbedderInterface
	logger   *slog.Logger
	locks    *docLocks
}

func NewPostgresStore(ctx context.Context, connStr string, embedder model.EmbedderInterface) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{
		pool:     pool,
		embedder: embedder,
		logger:   slog.Default(),
		locks:    newDocLocks(),
	}, nil
}

func (p *PostgresStore) Init(ctx context.Context) error {
	query := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS doc_chunks (
		doc_id TEXT NOT NULL,
		chunk_idx INT NOT NULL,
		content TEXT NOT NULL,
		embedding vector(%d) NOT NULL,
		PRIMARY KEY (doc_id, chunk_idx)
	);

	CREATE INDEX IF NOT EXISTS idx_doc_chunks_doc_id ON doc_chunks(doc_id);
	`, p.embedder.Dim())
	if _, err := p.pool.Exec(ctx, query); err != nil {
		return err
	}

	// The ivfflat index is a speed optimization only; search stays correct
	// on a full scan, so a failure here is logged and ignored.
	ivf := `CREATE INDEX IF NOT EXISTS idx_doc_chunks_embedding ON doc_chunks
		USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);`
	if _, err := p.pool.Exec(ctx, ivf); err != nil {
		p.logger.Warn("ivfflat index creation failed, falling back to full scan", "error", err)
	}
	return nil
}

// Upsert replaces all indexed chunks of docID in a single transaction, so a
// failure never leaves old and new chunks mixed.
func (p *PostgresStore) Upsert(ctx context.Context, docID string, chunks []string) error {
	lock := p.locks.acquire(docID)
	defer p.locks.release(docID, lock)

	vecs := make([]pgvector.Vector, len(chunks))
	for i, c := range chunks {
		emb, err := p.embedder.Embed(c)
		if err != nil {
			return fmt.Errorf("error embedding chunk %d: %w", i, err)
		}
		vecs[i] = pgvector.NewVector(emb)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM doc_chunks WHERE doc_id = $1", docID); err != nil {
		return fmt.Errorf("error deleting old chunks: %w", err)
	}
	for i, c := range chunks {
		_, err := tx.Exec(ctx,
			"INSERT INTO doc_chunks (doc_id, chunk_idx, content, embedding) VALUES ($1, $2, $3, $4)",
			docID, i, c, vecs[i],
		)
		if err != nil {
			return fmt.Errorf("error inserting chunk %d: %w", i, err)
		}
	}
	return tx.Commit(ctx)
}

func (p *PostgresStore) Search(ctx context.Context, queryText string, topK int) ([]types.SearchResult, error) {
	if topK <= 0 {
		topK = defaultTopK
	}
	qvec, err := p.embedder.Embed(queryText)
	if err != nil {
		return nil, err
	}
	vector := pgvector.NewVector(qvec)

	// `<=>` is cosine distance; similarity = 1 - distance. The extra
	// ordering keys keep near-ties deterministic across backends.
	query := `
		SELECT doc_id, chunk_idx, content, 1 - (embedding <=> $1) AS score
		FROM doc_chunks
		ORDER BY embedding <=> $1, doc_id, chunk_idx
		LIMIT $2
	`
	rows, err := p.pool.Query(ctx, query, vector, topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []types.SearchResult
	for rows.Next() {
		var r types.SearchResult
		if err := rows.Scan(&r.DocID, &r.ChunkIdx, &r.Content, &r.Score); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
		log.Println("Postgres connection pool is closed")
	}
	return nil
}
