package models

import "fmt"

// ReportReason — закрытый перечень причин жалобы.
type ReportReason string

const (
	ReasonSpam          ReportReason = "spam"
	ReasonOffensive     ReportReason = "offensive"
	ReasonInappropriate ReportReason = "inappropriate"
	ReasonOther         ReportReason = "other"
)

// ReportReasons — все допустимые причины в порядке отображения.
var ReportReasons = []ReportReason{ReasonSpam, ReasonOffensive, ReasonInappropriate, ReasonOther}

// ParseReportReason проверяет причину жалобы по перечню.
func ParseReportReason(s string) (ReportReason, error) {
	for _, r := range ReportReasons {
		if string(r) == s {
			return r, nil
		}
	}

	return "", fmt.Errorf("unknown report reason %q", s)
}

// Attachment — файл, уходящий в multipart-тело при создании комментария.
type Attachment struct {
	Name     string
	MIMEType string
	Data     []byte
}

// NewComment — данные для создания комментария на бэкенде.
// ParentID пуст для корневого комментария.
type NewComment struct {
	Text           string
	AuthorID       ID
	AuthorUsername string
	ParentID       ID
	Images         []Attachment
}

// Report — жалоба на комментарий.
type Report struct {
	ReporterID  ID
	Reason      ReportReason
	Description string
}
