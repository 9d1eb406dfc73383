package notify

import (
	"fmt"
	"strings"
	"text/template"
)

type messageTemplate struct {
	subject string
	body    *template.Template
}

var templates = map[Type]messageTemplate{
	TypeNewSchedule: {
		subject: "Your course will be recorded: {{course}}",
		body: mustTemplate("new_schedule", `Hello {{.RecipientName}},

Recordings have been scheduled for {{.Course}} in {{.Room}}.
Meetings: {{.Days}} {{.StartTime}}-{{.EndTime}}, {{.StartDate}} through {{.EndDate}}.
Recording type: {{.RecordingType}}.

Recordings publish to {{.PublishType}}. You can change these settings at any time.
`),
	},
	TypeScheduleChanged: {
		subject: "Recording schedule updated: {{course}}",
		body: mustTemplate("schedule_changed", `Hello {{.RecipientName}},

The recording schedule for {{.Course}} has changed to match updated class information.
Meetings: {{.Days}} {{.StartTime}}-{{.EndTime}}, {{.StartDate}} through {{.EndDate}}, in {{.Room}}.

No action is needed; recordings continue under the new schedule.
`),
	},
	TypeChangesConfirmed: {
		subject: "Your recording settings were applied: {{course}}",
		body: mustTemplate("changes_confirmed", `Hello {{.RecipientName}},

The recording settings you requested for {{.Course}} are now in effect.
{{.Summary}}
`),
	},
	TypeInstructorAdded: {
		subject: "You have been added to a recorded course: {{course}}",
		body: mustTemplate("instructor_added", `Hello {{.RecipientName}},

You are now listed as an instructor for {{.Course}}, which is scheduled for recording.
You have collaborator access to its recordings.
`),
	},
	TypeInstructorRemoved: {
		subject: "Recording access removed: {{course}}",
		body: mustTemplate("instructor_removed", `Hello {{.RecipientName}},

You are no longer listed as an instructor for {{.Course}}.
Your collaborator access to its recordings has been removed.
`),
	},
	TypeRoomIneligible: {
		subject: "Recordings stopped, room has no capture equipment: {{course}}",
		body: mustTemplate("room_ineligible", `Hello {{.RecipientName}},

{{.Course}} has moved to {{.Room}}, which has no capture equipment.
Scheduled recordings have been canceled. If the course moves back to a
capture-enabled room, recordings resume automatically.
`),
	},
	TypeCourseCanceled: {
		subject: "Recordings canceled with course: {{course}}",
		body: mustTemplate("course_canceled", `Hello {{.RecipientName}},

{{.Course}} has been canceled, and its scheduled recordings have been removed.
`),
	},
	TypeOptedOut: {
		subject: "Recordings stopped by opt-out: {{course}}",
		body: mustTemplate("opted_out", `Hello {{.RecipientName}},

Recordings for {{.Course}} have been canceled following an opt-out request.
`),
	},
	TypeOperatorRequested: {
		subject: "Camera operator requested: {{course}}",
		body: mustTemplate("operator_requested", `An instructor has requested recordings with a camera operator.

Course: {{.Course}}
Room: {{.Room}}
Meetings: {{.Days}} {{.StartTime}}-{{.EndTime}}
Requested by: {{.RequestedBy}}
`),
	},
	TypeMultiPatternChange: {
		subject: "Review needed, multiple meeting patterns changed: {{course}}",
		body: mustTemplate("multi_pattern_change", `{{.Course}} carries multiple meeting patterns and more than one changed in a single pass.

Patterns affected: {{.Patterns}}

Verify the resulting schedules are correct.
`),
	},
	TypeAdminAlert: {
		subject: "Reconciliation needs attention: {{course}}",
		body: mustTemplate("admin_alert", `Reconciliation hit a condition that needs an operator.

Course: {{.Course}}
Detail: {{.Summary}}
`),
	},
}

func mustTemplate(name, text string) *template.Template {
	return template.Must(template.New(name).Parse(text))
}

type templateData struct {
	RecipientName string
	Course        string
	Room          string
	Days          string
	StartDate     string
	EndDate       string
	StartTime     string
	EndTime       string
	RecordingType string
	PublishType   string
	RequestedBy   string
	Patterns      string
	Summary       string
}

func dataFrom(event Event, recipient Recipient) templateData {
	get := func(key string) string { return event.Data[key] }
	name := strings.TrimSpace(recipient.Name)
	if name == "" {
		name = "Instructor"
	}
	return templateData{
		RecipientName: name,
		Course:        get("course"),
		Room:          get("room"),
		Days:          get("days"),
		StartDate:     get("start_date"),
		EndDate:       get("end_date"),
		StartTime:     get("start_time"),
		EndTime:       get("end_time"),
		RecordingType: get("recording_type"),
		PublishType:   get("publish_type"),
		RequestedBy:   get("requested_by"),
		Patterns:      get("patterns"),
		Summary:       get("summary"),
	}
}

// Render produces the subject and body for one recipient of an event.
func Render(event Event, recipient Recipient) (string, string, error) {
	tmpl, ok := templates[event.Type]
	if !ok {
		return "", "", fmt.Errorf("no template for notification type %q", event.Type)
	}
	subject := strings.ReplaceAll(tmpl.subject, "{{course}}", event.Data["course"])

	var body strings.Builder
	if err := tmpl.body.Execute(&body, dataFrom(event, recipient)); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", event.Type, err)
	}
	return subject, body.String(), nil
}
