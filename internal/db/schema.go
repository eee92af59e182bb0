package db

import "fmt"

// schemaSQL returns the corpus schema. The HNSW dimension is parameterized
// because it must match the configured embedding model.
func schemaSQL(dimension int) string {
	return fmt.Sprintf(`
    -- ==========================================================================
    -- COURSE TABLE (metadata catalog, one record per ingested course)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS course SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS title ON course TYPE string;
    DEFINE FIELD IF NOT EXISTS link ON course TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS instructor ON course TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS lessons ON course TYPE array<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS created ON course TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS course_title ON course FIELDS title UNIQUE;

    -- ==========================================================================
    -- CHUNK TABLE (atomic indexed unit; identity = course title + chunk index)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS chunk SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS course_title ON chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS lesson_number ON chunk TYPE option<int>;
    DEFINE FIELD IF NOT EXISTS chunk_index ON chunk TYPE int;
    DEFINE FIELD IF NOT EXISTS content ON chunk TYPE string;
    DEFINE FIELD IF NOT EXISTS embedding ON chunk TYPE array<float>;
    DEFINE FIELD IF NOT EXISTS created ON chunk TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS chunk_course ON chunk FIELDS course_title;
    DEFINE INDEX IF NOT EXISTS chunk_lesson ON chunk FIELDS course_title, lesson_number;
    DEFINE INDEX IF NOT EXISTS chunk_embedding ON chunk FIELDS embedding HNSW DIMENSION %d DIST COSINE TYPE F32;
`, dimension)
}
