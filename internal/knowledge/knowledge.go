// Package knowledge is the campus knowledge store: structured records in
// SQLite, a ranked full-text index over their rendered content, and the
// query service that turns both into the observations the reasoning loop
// consumes.
package knowledge

// Hit is one scored result from the store or the index. Content is the
// rendered text the loop's formatter understands.
type Hit struct {
	Content  string
	Category string
	Source   string
	Score    float64
}

// Program is a degree program.
type Program struct {
	Name        string `json:"name"`
	DegreeType  string `json:"degree_type"`
	Department  string `json:"department"`
	Description string `json:"description"`
	WebsiteURL  string `json:"website_url,omitempty"`
}

// AdmissionRequirement describes entry criteria for a program.
type AdmissionRequirement struct {
	ProgramName  string  `json:"program_name"`
	DegreeLevel  string  `json:"degree_level"`
	MinGPA       float64 `json:"min_gpa"`
	TOEFLScore   int     `json:"toefl_score,omitempty"`
	IELTSScore   float64 `json:"ielts_score,omitempty"`
	GRERequired  bool    `json:"gre_required,omitempty"`
	Additional   string  `json:"additional,omitempty"`
}

// Course is a catalog entry with its prerequisite chain.
type Course struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	Department    string `json:"department"`
	Prerequisites string `json:"prerequisites"`
	Corequisites  string `json:"corequisites,omitempty"`
	Description   string `json:"description"`
	Units         int    `json:"units"`
}

// Deadline is a dated academic milestone.
type Deadline struct {
	Semester    string `json:"semester"`
	Year        int    `json:"year"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	Description string `json:"description"`
	AppliesTo   string `json:"applies_to"`
}

// Resource is a campus office or service.
type Resource struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Building    string `json:"building,omitempty"`
	Room        string `json:"room,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	Hours       string `json:"hours,omitempty"`
	WebsiteURL  string `json:"website_url,omitempty"`
}

// FAQ is a curated question/answer pair.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
	Keywords string `json:"keywords,omitempty"`
}

// Club is a student organization.
type Club struct {
	Name            string `json:"name"`
	Category        string `json:"category"`
	Department      string `json:"department"`
	Description     string `json:"description"`
	ContactEmail    string `json:"contact_email,omitempty"`
	MeetingSchedule string `json:"meeting_schedule,omitempty"`
	WebsiteURL      string `json:"website_url,omitempty"`
}

// Scholarship is a financial award.
type Scholarship struct {
	Name             string  `json:"name"`
	Amount           int     `json:"amount"`
	AmountType       string  `json:"amount_type,omitempty"`
	Eligibility      string  `json:"eligibility"`
	MinGPA           float64 `json:"min_gpa,omitempty"`
	MajorRestriction string  `json:"major_restriction,omitempty"`
	Deadline         string  `json:"deadline,omitempty"`
	ApplicationURL   string  `json:"application_url,omitempty"`
	Description      string  `json:"description,omitempty"`
	Renewable        bool    `json:"renewable,omitempty"`
}
