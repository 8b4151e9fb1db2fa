package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Store is the structured half of the knowledge base. SQLite holds the
// canonical records; the full-text index is derived from them.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the knowledge database at dbPath.
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	// WAL allows concurrent readers while the populate path writes.
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS programs (
		program_id   INTEGER PRIMARY KEY AUTOINCREMENT,
		program_name TEXT NOT NULL,
		degree_type  TEXT NOT NULL,
		department   TEXT NOT NULL,
		description  TEXT NOT NULL,
		website_url  TEXT,
		UNIQUE (program_name, degree_type)
	);

	CREATE TABLE IF NOT EXISTS admission_requirements (
		requirement_id INTEGER PRIMARY KEY AUTOINCREMENT,
		program_name   TEXT NOT NULL,
		degree_level   TEXT NOT NULL,
		min_gpa        REAL,
		toefl_score    INTEGER,
		ielts_score    REAL,
		gre_required   INTEGER NOT NULL DEFAULT 0,
		additional     TEXT
	);

	CREATE TABLE IF NOT EXISTS prerequisites (
		course_code          TEXT PRIMARY KEY,
		course_name          TEXT NOT NULL,
		department           TEXT NOT NULL,
		prerequisite_courses TEXT,
		corequisite_courses  TEXT,
		description          TEXT,
		units                INTEGER
	);

	CREATE TABLE IF NOT EXISTS deadlines (
		deadline_id   INTEGER PRIMARY KEY AUTOINCREMENT,
		semester      TEXT NOT NULL,
		year          INTEGER NOT NULL,
		deadline_type TEXT NOT NULL,
		deadline_date TEXT NOT NULL,
		description   TEXT NOT NULL,
		applies_to    TEXT NOT NULL DEFAULT 'All'
	);

	CREATE TABLE IF NOT EXISTS campus_resources (
		resource_id   INTEGER PRIMARY KEY AUTOINCREMENT,
		resource_name TEXT NOT NULL UNIQUE,
		category      TEXT NOT NULL,
		description   TEXT NOT NULL,
		location      TEXT,
		building      TEXT,
		room_number   TEXT,
		phone         TEXT,
		email         TEXT,
		hours         TEXT,
		website_url   TEXT
	);

	CREATE TABLE IF NOT EXISTS faqs (
		faq_id   INTEGER PRIMARY KEY AUTOINCREMENT,
		question TEXT NOT NULL UNIQUE,
		answer   TEXT NOT NULL,
		category TEXT,
		keywords TEXT
	);

	CREATE TABLE IF NOT EXISTS student_clubs (
		club_id          INTEGER PRIMARY KEY AUTOINCREMENT,
		club_name        TEXT NOT NULL UNIQUE,
		category         TEXT NOT NULL,
		department       TEXT,
		description      TEXT NOT NULL,
		contact_email    TEXT,
		meeting_schedule TEXT,
		website_url      TEXT
	);

	CREATE TABLE IF NOT EXISTS scholarships (
		scholarship_id    INTEGER PRIMARY KEY AUTOINCREMENT,
		scholarship_name  TEXT NOT NULL UNIQUE,
		amount            INTEGER NOT NULL,
		amount_type       TEXT,
		eligibility       TEXT NOT NULL,
		min_gpa           REAL,
		major_restriction TEXT,
		deadline          TEXT,
		application_url   TEXT,
		description       TEXT,
		renewable         INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_deadlines_semester ON deadlines(semester);
	CREATE INDEX IF NOT EXISTS idx_faqs_category ON faqs(category);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}
	return nil
}

// UpsertProgram inserts or replaces a program.
func (s *Store) UpsertProgram(ctx context.Context, p Program) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO programs (program_name, degree_type, department, description, website_url)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (program_name, degree_type) DO UPDATE SET
			department = excluded.department,
			description = excluded.description,
			website_url = excluded.website_url`,
		p.Name, p.DegreeType, p.Department, p.Description, p.WebsiteURL)
	if err != nil {
		return fmt.Errorf("upsert program %q: %w", p.Name, err)
	}
	return nil
}

// UpsertAdmissionRequirement inserts an admission requirement row.
func (s *Store) UpsertAdmissionRequirement(ctx context.Context, r AdmissionRequirement) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admission_requirements
			(program_name, degree_level, min_gpa, toefl_score, ielts_score, gre_required, additional)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ProgramName, r.DegreeLevel, r.MinGPA, r.TOEFLScore, r.IELTSScore, r.GRERequired, r.Additional)
	if err != nil {
		return fmt.Errorf("upsert admission requirement for %q: %w", r.ProgramName, err)
	}
	return nil
}

// UpsertCourse inserts or replaces a course prerequisite record.
func (s *Store) UpsertCourse(ctx context.Context, c Course) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prerequisites
			(course_code, course_name, department, prerequisite_courses, corequisite_courses, description, units)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (course_code) DO UPDATE SET
			course_name = excluded.course_name,
			department = excluded.department,
			prerequisite_courses = excluded.prerequisite_courses,
			corequisite_courses = excluded.corequisite_courses,
			description = excluded.description,
			units = excluded.units`,
		c.Code, c.Name, c.Department, c.Prerequisites, c.Corequisites, c.Description, c.Units)
	if err != nil {
		return fmt.Errorf("upsert course %q: %w", c.Code, err)
	}
	return nil
}

// UpsertDeadline inserts a deadline row.
func (s *Store) UpsertDeadline(ctx context.Context, d Deadline) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deadlines (semester, year, deadline_type, deadline_date, description, applies_to)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.Semester, d.Year, d.Type, d.Date, d.Description, d.AppliesTo)
	if err != nil {
		return fmt.Errorf("upsert deadline %s %s: %w", d.Semester, d.Type, err)
	}
	return nil
}

// UpsertResource inserts or replaces a campus resource.
func (s *Store) UpsertResource(ctx context.Context, r Resource) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO campus_resources
			(resource_name, category, description, location, building, room_number, phone, email, hours, website_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (resource_name) DO UPDATE SET
			category = excluded.category,
			description = excluded.description,
			location = excluded.location,
			building = excluded.building,
			room_number = excluded.room_number,
			phone = excluded.phone,
			email = excluded.email,
			hours = excluded.hours,
			website_url = excluded.website_url`,
		r.Name, r.Category, r.Description, r.Location, r.Building, r.Room, r.Phone, r.Email, r.Hours, r.WebsiteURL)
	if err != nil {
		return fmt.Errorf("upsert resource %q: %w", r.Name, err)
	}
	return nil
}

// UpsertFAQ inserts or replaces an FAQ.
func (s *Store) UpsertFAQ(ctx context.Context, f FAQ) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO faqs (question, answer, category, keywords)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (question) DO UPDATE SET
			answer = excluded.answer,
			category = excluded.category,
			keywords = excluded.keywords`,
		f.Question, f.Answer, f.Category, f.Keywords)
	if err != nil {
		return fmt.Errorf("upsert faq %q: %w", f.Question, err)
	}
	return nil
}

// UpsertClub inserts or replaces a student club.
func (s *Store) UpsertClub(ctx context.Context, c Club) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO student_clubs
			(club_name, category, department, description, contact_email, meeting_schedule, website_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (club_name) DO UPDATE SET
			category = excluded.category,
			department = excluded.department,
			description = excluded.description,
			contact_email = excluded.contact_email,
			meeting_schedule = excluded.meeting_schedule,
			website_url = excluded.website_url`,
		c.Name, c.Category, c.Department, c.Description, c.ContactEmail, c.MeetingSchedule, c.WebsiteURL)
	if err != nil {
		return fmt.Errorf("upsert club %q: %w", c.Name, err)
	}
	return nil
}

// UpsertScholarship inserts or replaces a scholarship.
func (s *Store) UpsertScholarship(ctx context.Context, sc Scholarship) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scholarships
			(scholarship_name, amount, amount_type, eligibility, min_gpa, major_restriction,
			 deadline, application_url, description, renewable)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (scholarship_name) DO UPDATE SET
			amount = excluded.amount,
			amount_type = excluded.amount_type,
			eligibility = excluded.eligibility,
			min_gpa = excluded.min_gpa,
			major_restriction = excluded.major_restriction,
			deadline = excluded.deadline,
			application_url = excluded.application_url,
			description = excluded.description,
			renewable = excluded.renewable`,
		sc.Name, sc.Amount, sc.AmountType, sc.Eligibility, sc.MinGPA, sc.MajorRestriction,
		sc.Deadline, sc.ApplicationURL, sc.Description, sc.Renewable)
	if err != nil {
		return fmt.Errorf("upsert scholarship %q: %w", sc.Name, err)
	}
	return nil
}

// CourseByCode returns the course with the exact code, or nil when absent.
func (s *Store) CourseByCode(ctx context.Context, code string) (*Course, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT course_code, course_name, department,
		       COALESCE(prerequisite_courses, ''), COALESCE(corequisite_courses, ''),
		       COALESCE(description, ''), COALESCE(units, 0)
		FROM prerequisites WHERE course_code = ?`, code)

	var c Course
	err := row.Scan(&c.Code, &c.Name, &c.Department, &c.Prerequisites, &c.Corequisites, &c.Description, &c.Units)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("course lookup %q: %w", code, err)
	}
	return &c, nil
}

// Search runs the cascading keyword search: FAQs first, then course
// prerequisites, then programs, until n hits are collected. It is the
// fallback when the full-text index is unavailable or empty.
func (s *Store) Search(ctx context.Context, query string, n int) ([]Hit, error) {
	if n <= 0 {
		n = 3
	}
	var hits []Hit
	like := "%" + strings.ToLower(query) + "%"

	rows, err := s.db.QueryContext(ctx, `
		SELECT question, answer, COALESCE(category, 'general')
		FROM faqs
		WHERE LOWER(question) LIKE ? OR LOWER(answer) LIKE ? OR LOWER(COALESCE(keywords, '')) LIKE ?
		LIMIT ?`, like, like, like, n)
	if err != nil {
		return nil, fmt.Errorf("faq search: %w", err)
	}
	for rows.Next() {
		var q, a, cat string
		if err := rows.Scan(&q, &a, &cat); err != nil {
			rows.Close()
			return nil, err
		}
		hits = append(hits, Hit{
			Content:  RenderFAQ(FAQ{Question: q, Answer: a}),
			Category: cat,
			Source:   "faq",
			Score:    0.9,
		})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(hits) < n {
		more, err := s.searchCourses(ctx, query, n-len(hits))
		if err != nil {
			return nil, err
		}
		hits = append(hits, more...)
	}

	if len(hits) < n {
		more, err := s.searchPrograms(ctx, query, n-len(hits))
		if err != nil {
			return nil, err
		}
		hits = append(hits, more...)
	}

	if len(hits) > n {
		hits = hits[:n]
	}
	return hits, nil
}

func (s *Store) searchCourses(ctx context.Context, query string, limit int) ([]Hit, error) {
	var hits []Hit
	seen := map[string]bool{}
	for _, keyword := range strings.Fields(strings.ToLower(query)) {
		like := "%" + keyword + "%"
		rows, err := s.db.QueryContext(ctx, `
			SELECT course_code, course_name,
			       COALESCE(prerequisite_courses, ''), COALESCE(description, '')
			FROM prerequisites
			WHERE LOWER(course_code) LIKE ? OR LOWER(course_name) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?
			LIMIT ?`, like, like, like, limit-len(hits))
		if err != nil {
			return nil, fmt.Errorf("course search: %w", err)
		}
		for rows.Next() {
			var c Course
			if err := rows.Scan(&c.Code, &c.Name, &c.Prerequisites, &c.Description); err != nil {
				rows.Close()
				return nil, err
			}
			if seen[c.Code] {
				continue
			}
			seen[c.Code] = true
			hits = append(hits, Hit{
				Content:  RenderCourse(c),
				Category: "academics",
				Source:   "prerequisites",
				Score:    0.8,
			})
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
		if len(hits) >= limit {
			break
		}
	}
	return hits, nil
}

func (s *Store) searchPrograms(ctx context.Context, query string, limit int) ([]Hit, error) {
	var hits []Hit
	seen := map[string]bool{}
	for _, keyword := range strings.Fields(strings.ToLower(query)) {
		like := "%" + keyword + "%"
		rows, err := s.db.QueryContext(ctx, `
			SELECT program_name, degree_type, COALESCE(description, '')
			FROM programs
			WHERE LOWER(program_name) LIKE ? OR LOWER(description) LIKE ?
			LIMIT ?`, like, like, limit-len(hits))
		if err != nil {
			return nil, fmt.Errorf("program search: %w", err)
		}
		for rows.Next() {
			var p Program
			if err := rows.Scan(&p.Name, &p.DegreeType, &p.Description); err != nil {
				rows.Close()
				return nil, err
			}
			key := p.Name + "/" + p.DegreeType
			if seen[key] {
				continue
			}
			seen[key] = true
			hits = append(hits, Hit{
				Content:  RenderProgram(p),
				Category: "academics",
				Source:   "programs",
				Score:    0.7,
			})
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
		if len(hits) >= limit {
			break
		}
	}
	return hits, nil
}

// Deadlines returns deadlines, optionally filtered by semester, ordered by
// date.
func (s *Store) Deadlines(ctx context.Context, semester string) ([]Deadline, error) {
	q := `SELECT semester, year, deadline_type, deadline_date, description, applies_to
	      FROM deadlines`
	args := []any{}
	if semester != "" {
		q += ` WHERE semester = ?`
		args = append(args, semester)
	}
	q += ` ORDER BY deadline_date`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("deadlines: %w", err)
	}
	defer rows.Close()

	var out []Deadline
	for rows.Next() {
		var d Deadline
		if err := rows.Scan(&d.Semester, &d.Year, &d.Type, &d.Date, &d.Description, &d.AppliesTo); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Stats reports per-table row counts.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	tables := []string{
		"programs", "admission_requirements", "prerequisites", "deadlines",
		"campus_resources", "faqs", "student_clubs", "scholarships",
	}
	stats := make(map[string]int, len(tables))
	for _, table := range tables {
		var count int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		stats[table] = count
	}
	return stats, nil
}

// Documents streams every record rendered as indexable text, keyed by a
// stable document ID. It feeds the full-text index.
func (s *Store) Documents(ctx context.Context) (map[string]Hit, error) {
	docs := map[string]Hit{}

	rows, err := s.db.QueryContext(ctx, `SELECT faq_id, question, answer, COALESCE(category, 'general') FROM faqs`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id int64
		var f FAQ
		var cat string
		if err := rows.Scan(&id, &f.Question, &f.Answer, &cat); err != nil {
			rows.Close()
			return nil, err
		}
		docs[fmt.Sprintf("faq-%d", id)] = Hit{Content: RenderFAQ(f), Category: cat, Source: "faq"}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT course_code, course_name, COALESCE(prerequisite_courses, ''), COALESCE(description, '')
		FROM prerequisites`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.Code, &c.Name, &c.Prerequisites, &c.Description); err != nil {
			rows.Close()
			return nil, err
		}
		docs["course-"+c.Code] = Hit{Content: RenderCourse(c), Category: "academics", Source: "prerequisites"}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT program_id, program_name, degree_type, COALESCE(description, '') FROM programs`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id int64
		var p Program
		if err := rows.Scan(&id, &p.Name, &p.DegreeType, &p.Description); err != nil {
			rows.Close()
			return nil, err
		}
		docs[fmt.Sprintf("program-%d", id)] = Hit{Content: RenderProgram(p), Category: "academics", Source: "programs"}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT deadline_id, semester, year, deadline_type, deadline_date, description, applies_to FROM deadlines`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id int64
		var d Deadline
		if err := rows.Scan(&id, &d.Semester, &d.Year, &d.Type, &d.Date, &d.Description, &d.AppliesTo); err != nil {
			rows.Close()
			return nil, err
		}
		docs[fmt.Sprintf("deadline-%d", id)] = Hit{Content: RenderDeadline(d), Category: "registration", Source: "deadlines"}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT resource_id, resource_name, category, description,
		       COALESCE(location, ''), COALESCE(building, ''), COALESCE(room_number, ''),
		       COALESCE(phone, ''), COALESCE(hours, '')
		FROM campus_resources`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id int64
		var r Resource
		if err := rows.Scan(&id, &r.Name, &r.Category, &r.Description, &r.Location, &r.Building, &r.Room, &r.Phone, &r.Hours); err != nil {
			rows.Close()
			return nil, err
		}
		docs[fmt.Sprintf("resource-%d", id)] = Hit{Content: RenderResource(r), Category: "campus", Source: "campus_resources"}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT club_id, club_name, category, COALESCE(department, ''), description,
		       COALESCE(meeting_schedule, '')
		FROM student_clubs`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id int64
		var c Club
		if err := rows.Scan(&id, &c.Name, &c.Category, &c.Department, &c.Description, &c.MeetingSchedule); err != nil {
			rows.Close()
			return nil, err
		}
		docs[fmt.Sprintf("club-%d", id)] = Hit{Content: RenderClub(c), Category: "campuslife", Source: "student_clubs"}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT scholarship_id, scholarship_name, amount, eligibility,
		       COALESCE(min_gpa, 0), COALESCE(deadline, '')
		FROM scholarships`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id int64
		var sc Scholarship
		if err := rows.Scan(&id, &sc.Name, &sc.Amount, &sc.Eligibility, &sc.MinGPA, &sc.Deadline); err != nil {
			rows.Close()
			return nil, err
		}
		docs[fmt.Sprintf("scholarship-%d", id)] = Hit{Content: RenderScholarship(sc), Category: "financial", Source: "scholarships"}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}
