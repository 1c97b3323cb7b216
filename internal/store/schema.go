package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table names.
const (
	tableUsers       = "users"
	tableSubjects    = "subjects"
	tableTopics      = "topics"
	tableSubtopics   = "subtopics"
	tableQuestions   = "questions"
	tableAttempts    = "attempts"
	tableExams       = "exam_registrations"
	tableSnapshots   = "mastery_snapshots"
	tableSchedules   = "review_schedules"
	tableSuggestions = "suggestions"
)

var (
	usersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "name", Type: field.TypeString, Default: ""},
		{Name: "email", Type: field.TypeString, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
	}
	usersTable = &schema.Table{
		Name:       tableUsers,
		Columns:    usersColumns,
		PrimaryKey: []*schema.Column{usersColumns[0]},
	}

	subjectsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "name", Type: field.TypeString},
		{Name: "weightage", Type: field.TypeFloat64, Default: 1},
		{Name: "order_index", Type: field.TypeInt, Default: 0},
	}
	subjectsTable = &schema.Table{
		Name:       tableSubjects,
		Columns:    subjectsColumns,
		PrimaryKey: []*schema.Column{subjectsColumns[0]},
	}

	topicsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "subject_id", Type: field.TypeString},
		{Name: "name", Type: field.TypeString},
		{Name: "weightage", Type: field.TypeFloat64, Default: 1},
		{Name: "order_index", Type: field.TypeInt, Default: 0},
	}
	topicsTable = &schema.Table{
		Name:       tableTopics,
		Columns:    topicsColumns,
		PrimaryKey: []*schema.Column{topicsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "topic_subject_id", Columns: []*schema.Column{topicsColumns[1]}},
		},
	}

	subtopicsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "topic_id", Type: field.TypeString},
		{Name: "name", Type: field.TypeString},
		{Name: "weightage", Type: field.TypeFloat64, Default: 1},
		{Name: "order_index", Type: field.TypeInt, Default: 0},
	}
	subtopicsTable = &schema.Table{
		Name:       tableSubtopics,
		Columns:    subtopicsColumns,
		PrimaryKey: []*schema.Column{subtopicsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "subtopic_topic_id", Columns: []*schema.Column{subtopicsColumns[1]}},
		},
	}

	questionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "subject_id", Type: field.TypeString},
		{Name: "topic_id", Type: field.TypeString},
		{Name: "subtopic_id", Type: field.TypeString},
		{Name: "difficulty", Type: field.TypeInt, Default: 1},
		{Name: "question_time", Type: field.TypeFloat64, Default: 0},
	}
	questionsTable = &schema.Table{
		Name:       tableQuestions,
		Columns:    questionsColumns,
		PrimaryKey: []*schema.Column{questionsColumns[0]},
	}

	attemptsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString},
		{Name: "question_id", Type: field.TypeString},
		{Name: "timing", Type: field.TypeFloat64, Default: 0},
		{Name: "reaction_time", Type: field.TypeFloat64, Nullable: true},
		{Name: "status", Type: field.TypeString},
		{Name: "hints_used", Type: field.TypeInt, Default: 0},
		{Name: "solved_at", Type: field.TypeTime},
	}
	attemptsTable = &schema.Table{
		Name:       tableAttempts,
		Columns:    attemptsColumns,
		PrimaryKey: []*schema.Column{attemptsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "attempt_user_id_solved_at", Columns: []*schema.Column{attemptsColumns[1], attemptsColumns[7]}},
		},
	}

	examsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "exam_date", Type: field.TypeTime},
		{Name: "registered_at", Type: field.TypeTime},
	}
	examsTable = &schema.Table{
		Name:       tableExams,
		Columns:    examsColumns,
		PrimaryKey: []*schema.Column{examsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "exam_user_id_registered_at", Columns: []*schema.Column{examsColumns[1], examsColumns[3]}},
		},
	}

	snapshotsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "taken_at", Type: field.TypeTime},
		{Name: "overall", Type: field.TypeFloat64},
		{Name: "data", Type: field.TypeJSON},
	}
	snapshotsTable = &schema.Table{
		Name:       tableSnapshots,
		Columns:    snapshotsColumns,
		PrimaryKey: []*schema.Column{snapshotsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "snapshot_user_id_taken_at", Columns: []*schema.Column{snapshotsColumns[1], snapshotsColumns[2]}},
		},
	}

	schedulesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "subtopic_id", Type: field.TypeString},
		{Name: "last_reviewed_at", Type: field.TypeTime},
		{Name: "interval_days", Type: field.TypeFloat64},
		{Name: "next_review_at", Type: field.TypeTime},
		{Name: "mastery", Type: field.TypeFloat64},
		{Name: "overdue_days", Type: field.TypeFloat64, Default: 0},
		{Name: "updated_at", Type: field.TypeTime},
	}
	schedulesTable = &schema.Table{
		Name:       tableSchedules,
		Columns:    schedulesColumns,
		PrimaryKey: []*schema.Column{schedulesColumns[0]},
		Indexes: []*schema.Index{
			{Name: "schedule_user_id_subtopic_id", Unique: true, Columns: []*schema.Column{schedulesColumns[1], schedulesColumns[2]}},
		},
	}

	suggestionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString},
		{Name: "type", Type: field.TypeString},
		{Name: "trigger_type", Type: field.TypeString},
		{Name: "category", Type: field.TypeString},
		{Name: "priority", Type: field.TypeInt, Default: 0},
		{Name: "message", Type: field.TypeString, Size: 2048},
		{Name: "action_name", Type: field.TypeString, Default: ""},
		{Name: "action_url", Type: field.TypeString, Default: ""},
		{Name: "display_until", Type: field.TypeTime, Nullable: true},
		{Name: "status", Type: field.TypeString},
		// open_key is user|category|trigger while PENDING or ACTIVE and
		// NULL once closed, so the unique index admits one open row per key.
		{Name: "open_key", Type: field.TypeString, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	suggestionsTable = &schema.Table{
		Name:       tableSuggestions,
		Columns:    suggestionsColumns,
		PrimaryKey: []*schema.Column{suggestionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "suggestion_open_key", Unique: true, Columns: []*schema.Column{suggestionsColumns[11]}},
			{Name: "suggestion_user_id_status", Columns: []*schema.Column{suggestionsColumns[1], suggestionsColumns[10]}},
		},
	}
)

// tables lists every table in creation order.
var tables = []*schema.Table{
	usersTable,
	subjectsTable,
	topicsTable,
	subtopicsTable,
	questionsTable,
	attemptsTable,
	examsTable,
	snapshotsTable,
	schedulesTable,
	suggestionsTable,
}
