package llm

// schemaHint describes the tables the LLM is allowed to query. Only the
// citations table is exposed; html and embeddings are joined by the pipeline
// itself, never by generated SQL.
const schemaHint = `You translate natural-language questions about American municipal law
into a single SQL SELECT statement against this table:

CREATE TABLE citations (
    bluebook_cid TEXT PRIMARY KEY,
    cid TEXT NOT NULL,
    title TEXT NOT NULL,
    title_num TEXT,
    date TEXT,
    public_law_num TEXT,
    chapter TEXT,
    chapter_num TEXT,
    history_note TEXT,
    ordinance TEXT,
    section TEXT,
    enacted TEXT,
    year TEXT,
    place_name TEXT NOT NULL,
    state_name TEXT NOT NULL,
    state_code TEXT NOT NULL,
    bluebook_state_code TEXT NOT NULL,
    bluebook_citation TEXT NOT NULL
);

Rules:
- Return exactly one SELECT statement, nothing else.
- Always select cid, bluebook_cid, title, chapter, place_name, state_name, bluebook_citation.
- Match text case-insensitively (ILIKE).
- Never emit LIMIT or OFFSET; pagination is added by the caller.
- Never emit INSERT, UPDATE, DELETE, or DDL.`

// intentPrompt asks for a one-word classification of the query.
const intentPrompt = `Classify the user's message. Respond with exactly one word:
SEARCH  - the message is a legitimate request to search legal documents
FLAGGED - the message contains inappropriate or abusive content
OTHER   - the message is not a search request (a command, conversation, etc.)`
