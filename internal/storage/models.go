package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConstraint wraps SQLite integrity violations (unique keys, foreign
// keys) so callers can map them to client errors.
var ErrConstraint = errors.New("constraint violation")

// dbErr tags constraint violations with ErrConstraint and passes every other
// error through unchanged.
func dbErr(err error) error {
	if err == nil {
		return nil
	}
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	}
	return err
}

type Company struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Website          string `json:"website,omitempty"`
	Industry         string `json:"industry,omitempty"`
	CompanySize      string `json:"company_size,omitempty"`
	Headquarters     string `json:"headquarters,omitempty"`
	IsRemoteFriendly bool   `json:"is_remote_friendly"`
	Notes            string `json:"notes,omitempty"`
	IsStarred        bool   `json:"is_starred"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// CompanyPatch carries a partial update; only set fields are written.
type CompanyPatch struct {
	Name             *string `json:"name"`
	Website          *string `json:"website"`
	Industry         *string `json:"industry"`
	CompanySize      *string `json:"company_size"`
	Headquarters     *string `json:"headquarters"`
	IsRemoteFriendly *bool   `json:"is_remote_friendly"`
	Notes            *string `json:"notes"`
	IsStarred        *bool   `json:"is_starred"`
}

type ResumeVersion struct {
	ID               int64    `json:"id"`
	Filename         string   `json:"filename"`
	VersionName      string   `json:"version_name"`
	ContentText      string   `json:"content_text,omitempty"`
	S3Key            string   `json:"s3_key,omitempty"`
	EditableS3Key    string   `json:"editable_s3_key,omitempty"`
	EditableFilename string   `json:"editable_filename,omitempty"`
	SkillsEmphasized []string `json:"skills_emphasized,omitempty"`
	TargetRoles      string   `json:"target_roles,omitempty"`
	IsMaster         bool     `json:"is_master"`
	Description      string   `json:"description,omitempty"`
	WordCount        int      `json:"word_count"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`

	// Populated by ResumeVersionsWithTags only.
	Tags     string `json:"tags,omitempty"`
	TagCount int    `json:"tag_count,omitempty"`
}

type ResumeVersionPatch struct {
	Filename         *string   `json:"filename"`
	VersionName      *string   `json:"version_name"`
	ContentText      *string   `json:"content_text"`
	S3Key            *string   `json:"s3_key"`
	EditableS3Key    *string   `json:"editable_s3_key"`
	EditableFilename *string   `json:"editable_filename"`
	SkillsEmphasized *[]string `json:"skills_emphasized"`
	TargetRoles      *string   `json:"target_roles"`
	IsMaster         *bool     `json:"is_master"`
	Description      *string   `json:"description"`
}

type Recruiter struct {
	ID                     int64  `json:"id"`
	Name                   string `json:"name"`
	PrimaryContactName     string `json:"primary_contact_name,omitempty"`
	Email                  string `json:"email,omitempty"`
	Phone                  string `json:"phone,omitempty"`
	PhoneSecondary         string `json:"phone_secondary,omitempty"`
	Company                string `json:"company,omitempty"`
	LinkedInURL            string `json:"linkedin_url,omitempty"`
	Specialties            string `json:"specialties,omitempty"`
	CurrentResumeVersionID *int64 `json:"current_resume_version_id"`
	CurrentResumeVersion   string `json:"current_resume_version,omitempty"`
	PositionTitle          string `json:"position_title,omitempty"`
	Department             string `json:"department,omitempty"`
	ManagerName            string `json:"manager_name,omitempty"`
	ManagerEmail           string `json:"manager_email,omitempty"`
	ManagerPhone           string `json:"manager_phone,omitempty"`
	ManagerLinkedInURL     string `json:"manager_linkedin_url,omitempty"`
	AccountName            string `json:"account_name,omitempty"`
	AccountType            string `json:"account_type,omitempty"`
	OfficeLocation         string `json:"office_location,omitempty"`
	Timezone               string `json:"timezone,omitempty"`
	PreferredContactMethod string `json:"preferred_contact_method,omitempty"`
	IsManager              bool   `json:"is_manager"`
	TeamSize               *int64 `json:"team_size"`
	DecisionAuthority      string `json:"decision_authority,omitempty"`
	RelationshipStatus     string `json:"relationship_status"`
	LastContactDate        string `json:"last_contact_date,omitempty"`
	Notes                  string `json:"notes,omitempty"`
	IsStarred              bool   `json:"is_starred"`
	CreatedAt              string `json:"created_at"`
	UpdatedAt              string `json:"updated_at"`
}

type RecruiterPatch struct {
	Name                   *string `json:"name"`
	PrimaryContactName     *string `json:"primary_contact_name"`
	Email                  *string `json:"email"`
	Phone                  *string `json:"phone"`
	PhoneSecondary         *string `json:"phone_secondary"`
	Company                *string `json:"company"`
	LinkedInURL            *string `json:"linkedin_url"`
	Specialties            *string `json:"specialties"`
	PositionTitle          *string `json:"position_title"`
	Department             *string `json:"department"`
	ManagerName            *string `json:"manager_name"`
	ManagerEmail           *string `json:"manager_email"`
	ManagerPhone           *string `json:"manager_phone"`
	ManagerLinkedInURL     *string `json:"manager_linkedin_url"`
	AccountName            *string `json:"account_name"`
	AccountType            *string `json:"account_type"`
	OfficeLocation         *string `json:"office_location"`
	Timezone               *string `json:"timezone"`
	PreferredContactMethod *string `json:"preferred_contact_method"`
	IsManager              *bool   `json:"is_manager"`
	TeamSize               *int64  `json:"team_size"`
	DecisionAuthority      *string `json:"decision_authority"`
	RelationshipStatus     *string `json:"relationship_status"`
	Notes                  *string `json:"notes"`
	IsStarred              *bool   `json:"is_starred"`
}

type Manager struct {
	ID                     int64  `json:"id"`
	Name                   string `json:"name"`
	Email                  string `json:"email,omitempty"`
	Phone                  string `json:"phone,omitempty"`
	PhoneSecondary         string `json:"phone_secondary,omitempty"`
	LinkedInURL            string `json:"linkedin_url,omitempty"`
	PositionTitle          string `json:"position_title,omitempty"`
	Department             string `json:"department,omitempty"`
	CompanyID              *int64 `json:"company_id"`
	CompanyName            string `json:"company_name,omitempty"`
	OfficeLocation         string `json:"office_location,omitempty"`
	Timezone               string `json:"timezone,omitempty"`
	PreferredContactMethod string `json:"preferred_contact_method,omitempty"`
	DecisionAuthority      string `json:"decision_authority,omitempty"`
	IsHiringManager        bool   `json:"is_hiring_manager"`
	TeamSize               *int64 `json:"team_size"`
	Notes                  string `json:"notes,omitempty"`
	CreatedAt              string `json:"created_at"`
	UpdatedAt              string `json:"updated_at"`
}

type ManagerPatch struct {
	Name                   *string `json:"name"`
	Email                  *string `json:"email"`
	Phone                  *string `json:"phone"`
	PhoneSecondary         *string `json:"phone_secondary"`
	LinkedInURL            *string `json:"linkedin_url"`
	PositionTitle          *string `json:"position_title"`
	Department             *string `json:"department"`
	CompanyID              *int64  `json:"company_id"`
	OfficeLocation         *string `json:"office_location"`
	Timezone               *string `json:"timezone"`
	PreferredContactMethod *string `json:"preferred_contact_method"`
	DecisionAuthority      *string `json:"decision_authority"`
	IsHiringManager        *bool   `json:"is_hiring_manager"`
	TeamSize               *int64  `json:"team_size"`
	Notes                  *string `json:"notes"`
}

type JobPosting struct {
	ID              int64  `json:"id"`
	CompanyID       int64  `json:"company_id"`
	CompanyName     string `json:"company_name,omitempty"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	SalaryMin       *int64 `json:"salary_min"`
	SalaryMax       *int64 `json:"salary_max"`
	IsRemote        bool   `json:"is_remote"`
	Location        string `json:"location,omitempty"`
	JobBoardURL     string `json:"job_board_url,omitempty"`
	S3ScreenshotKey string `json:"s3_screenshot_key,omitempty"`
	DatePosted      string `json:"date_posted,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`

	// Populated by CompanyJobPostings only.
	ApplicationsCount   int    `json:"applications_count,omitempty"`
	ApplicationStatuses string `json:"application_statuses,omitempty"`
}

type Application struct {
	ID                int64  `json:"id"`
	CompanyID         int64  `json:"company_id"`
	CompanyName       string `json:"company_name,omitempty"`
	JobPostingID      *int64 `json:"job_posting_id"`
	RecruiterID       *int64 `json:"recruiter_id"`
	ResumeVersionID   *int64 `json:"resume_version_id"`
	PositionTitle     string `json:"position_title"`
	ApplicationDate   string `json:"application_date"`
	ApplicationSource string `json:"application_source,omitempty"`
	Status            string `json:"status"`
	ResponseDate      string `json:"response_date,omitempty"`
	OutcomeNotes      string `json:"outcome_notes,omitempty"`
	CoverLetterS3Key  string `json:"cover_letter_s3_key,omitempty"`
	JobPostingText    string `json:"job_posting_text,omitempty"`
	JobLocation       string `json:"job_location,omitempty"`
	JobURL            string `json:"job_url,omitempty"`
	SalaryMin         *int64 `json:"salary_min"`
	SalaryMax         *int64 `json:"salary_max"`
	IsRemote          *bool  `json:"is_remote"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

// ApplicationDetails is an Application joined with its company, resume,
// posting, and recruiter, with salary/remote falling back to the posting.
type ApplicationDetails struct {
	Application
	CompanyWebsite  string   `json:"company_website,omitempty"`
	ResumeVersion   string   `json:"resume_version,omitempty"`
	ResumeContent   string   `json:"resume_content,omitempty"`
	ResumeSkills    []string `json:"resume_skills,omitempty"`
	JobDescription  string   `json:"job_description,omitempty"`
	JobPostingTitle string   `json:"job_posting_title,omitempty"`
	RecruiterName   string   `json:"recruiter_name,omitempty"`
	RecruiterEmail  string   `json:"recruiter_email,omitempty"`
}

type ApplicationPatch struct {
	JobPostingText    *string `json:"job_posting_text"`
	JobLocation       *string `json:"job_location"`
	JobURL            *string `json:"job_url"`
	OutcomeNotes      *string `json:"outcome_notes"`
	Status            *string `json:"status"`
	JobPostingID      *int64  `json:"job_posting_id"`
	IsRemote          *bool   `json:"is_remote"`
	ApplicationSource *string `json:"application_source"`
	SalaryMin         *int64  `json:"salary_min"`
	SalaryMax         *int64  `json:"salary_max"`
	PositionTitle     *string `json:"position_title"`
}

type ApplicationEvent struct {
	ID               int64    `json:"id"`
	ApplicationID    int64    `json:"application_id"`
	EventType        string   `json:"event_type"`
	EventDate        string   `json:"event_date"`
	EventTime        string   `json:"event_time,omitempty"`
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	Outcome          string   `json:"outcome,omitempty"`
	NextSteps        string   `json:"next_steps,omitempty"`
	Attendees        []string `json:"attendees,omitempty"`
	Location         string   `json:"location,omitempty"`
	MeetingLink      string   `json:"meeting_link,omitempty"`
	DocumentsShared  []string `json:"documents_shared,omitempty"`
	DurationMinutes  *int64   `json:"duration_minutes"`
	FollowUpRequired bool     `json:"follow_up_required"`
	FollowUpDate     string   `json:"follow_up_date,omitempty"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`

	// Populated by UpcomingFollowUps only.
	PositionTitle string `json:"position_title,omitempty"`
	CompanyName   string `json:"company_name,omitempty"`
}

type ApplicationEventPatch struct {
	EventType        *string   `json:"event_type"`
	EventDate        *string   `json:"event_date"`
	EventTime        *string   `json:"event_time"`
	Title            *string   `json:"title"`
	Description      *string   `json:"description"`
	Outcome          *string   `json:"outcome"`
	NextSteps        *string   `json:"next_steps"`
	Attendees        *[]string `json:"attendees"`
	Location         *string   `json:"location"`
	MeetingLink      *string   `json:"meeting_link"`
	DocumentsShared  *[]string `json:"documents_shared"`
	DurationMinutes  *int64    `json:"duration_minutes"`
	FollowUpRequired *bool     `json:"follow_up_required"`
	FollowUpDate     *string   `json:"follow_up_date"`
}

// TimelineEvent is the shared shape of company and recruiter timeline rows.
type TimelineEvent struct {
	ID               int64  `json:"id"`
	ParentID         int64  `json:"-"`
	EventType        string `json:"event_type"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	EventDate        string `json:"event_date"`
	FollowUpRequired bool   `json:"follow_up_required"`
	FollowUpDate     string `json:"follow_up_date,omitempty"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

type TimelineEventPatch struct {
	EventType        *string `json:"event_type"`
	Title            *string `json:"title"`
	Description      *string `json:"description"`
	EventDate        *string `json:"event_date"`
	FollowUpRequired *bool   `json:"follow_up_required"`
	FollowUpDate     *string `json:"follow_up_date"`
}

// Communication is a message tied to one application.
type Communication struct {
	ID                int64  `json:"id"`
	ApplicationID     int64  `json:"application_id"`
	CommunicationType string `json:"communication_type"`
	Direction         string `json:"direction"`
	Subject           string `json:"subject,omitempty"`
	Content           string `json:"content,omitempty"`
	CommunicationDate string `json:"communication_date"`
	CreatedAt         string `json:"created_at"`
}

// RecruiterCommunication is a logged touchpoint with a recruiter.
type RecruiterCommunication struct {
	ID                int64  `json:"id"`
	RecruiterID       int64  `json:"recruiter_id"`
	CommunicationType string `json:"communication_type"`
	Direction         string `json:"direction"`
	Subject           string `json:"subject,omitempty"`
	Content           string `json:"content,omitempty"`
	Outcome           string `json:"outcome,omitempty"`
	FollowUpRequired  bool   `json:"follow_up_required"`
	FollowUpDate      string `json:"follow_up_date,omitempty"`
	Notes             string `json:"notes,omitempty"`
	CommunicationDate string `json:"communication_date"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

type ResumeShare struct {
	ID              int64  `json:"id"`
	RecruiterID     int64  `json:"recruiter_id"`
	ResumeVersionID int64  `json:"resume_version_id"`
	JobPostingID    *int64 `json:"job_posting_id"`
	SharingContext  string `json:"sharing_context,omitempty"`
	Notes           string `json:"notes,omitempty"`
	SharedDate      string `json:"shared_date"`
	VersionName     string `json:"version_name,omitempty"`
	Filename        string `json:"filename,omitempty"`
	JobTitle        string `json:"job_title,omitempty"`
}

type RecruiterManager struct {
	ID                int64  `json:"id"`
	RecruiterID       int64  `json:"recruiter_id"`
	ManagerID         int64  `json:"manager_id"`
	RelationshipType  string `json:"relationship_type"`
	RelationshipNotes string `json:"relationship_notes,omitempty"`
	IntroductionDate  string `json:"introduction_date,omitempty"`
	IsPrimaryContact  bool   `json:"is_primary_contact"`
	CreatedAt         string `json:"created_at"`

	// Joined fields, populated per direction of the lookup.
	ManagerName       string `json:"manager_name,omitempty"`
	ManagerEmail      string `json:"manager_email,omitempty"`
	ManagerPosition   string `json:"manager_position,omitempty"`
	ManagerDepartment string `json:"manager_department,omitempty"`
	IsHiringManager   bool   `json:"is_hiring_manager,omitempty"`
	CompanyName       string `json:"company_name,omitempty"`
	RecruiterName     string `json:"recruiter_name,omitempty"`
	RecruiterEmail    string `json:"recruiter_email,omitempty"`
}

type RecruiterManagerPatch struct {
	RelationshipType  *string `json:"relationship_type"`
	RelationshipNotes *string `json:"relationship_notes"`
	IntroductionDate  *string `json:"introduction_date"`
	IsPrimaryContact  *bool   `json:"is_primary_contact"`
}

type CompanyRecruiter struct {
	ID              int64  `json:"id"`
	CompanyID       int64  `json:"company_id"`
	RecruiterID     int64  `json:"recruiter_id"`
	AssociationType string `json:"association_type"`
	Specialization  string `json:"specialization,omitempty"`
	IsActive        bool   `json:"is_active"`
	StartDate       string `json:"start_date,omitempty"`
	EndDate         string `json:"end_date,omitempty"`
	Notes           string `json:"notes,omitempty"`

	RecruiterName      string `json:"recruiter_name,omitempty"`
	RecruiterEmail     string `json:"recruiter_email,omitempty"`
	RelationshipStatus string `json:"relationship_status,omitempty"`
	CompanyName        string `json:"company_name,omitempty"`
	Industry           string `json:"industry,omitempty"`
	Website            string `json:"website,omitempty"`
}

type CompanyRecruiterPatch struct {
	AssociationType *string `json:"association_type"`
	Specialization  *string `json:"specialization"`
	IsActive        *bool   `json:"is_active"`
	StartDate       *string `json:"start_date"`
	EndDate         *string `json:"end_date"`
	Notes           *string `json:"notes"`
}

type Tag struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type TagPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

// --- shared scan/encode helpers ---

// rowScanner lets one scan function serve both sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// updateBuilder accumulates SET clauses for allow-list partial updates.
type updateBuilder struct {
	sets []string
	args []any
}

func (u *updateBuilder) set(col string, v any) {
	u.sets = append(u.sets, col+" = ?")
	u.args = append(u.args, v)
}

func (u *updateBuilder) empty() bool { return len(u.sets) == 0 }

// exec runs the accumulated update against table, stamping updated_at.
// Returns false when no field was set or no row matched.
func (u *updateBuilder) exec(db *sql.DB, table string, where string, ids ...any) (bool, error) {
	if u.empty() {
		return false, nil
	}
	u.sets = append(u.sets, "updated_at = CURRENT_TIMESTAMP")
	query := "UPDATE " + table + " SET " + strings.Join(u.sets, ", ") + " WHERE " + where
	res, err := db.Exec(query, append(u.args, ids...)...)
	if err != nil {
		return false, dbErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// nullStr stores empty strings as NULL so optional text is queryable as such.
func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullID normalizes absent/zero foreign keys to NULL.
func nullID(p *int64) any {
	if p == nil || *p == 0 {
		return nil
	}
	return *p
}

func nullInt(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// encodeList serializes an ordered string list for a JSON text column.
// Empty lists are stored as NULL, matching how rows are created by hand.
func encodeList(v []string) any {
	if len(v) == 0 {
		return nil
	}
	b, _ := json.Marshal(v)
	return string(b)
}

// decodeList reverses encodeList; malformed stored text yields nil.
func decodeList(s sql.NullString) []string {
	if !s.Valid || s.String == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s.String), &out); err != nil {
		return nil
	}
	return out
}

// wordCount counts whitespace-separated words, the derivation used for
// resume_versions.word_count on every write.
func wordCount(text string) int {
	return len(strings.Fields(text))
}
