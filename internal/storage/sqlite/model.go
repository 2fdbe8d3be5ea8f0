package sqlite

// sourceRecord is one registry row. Dates are RFC 3339 text, the KPIs and
// Thresholds columns carry the comma-joined and JSON string forms.
type sourceRecord struct {
	ID           uint   `gorm:"column:id;primaryKey;autoIncrement"`
	SheetName    string `gorm:"column:sheet_name;type:text;not null;uniqueIndex"`
	SheetURL     string `gorm:"column:sheet_url;type:text;not null"`
	Status       string `gorm:"column:status;type:text;not null"`
	KPIs         string `gorm:"column:kpis;type:text;not null"`
	Thresholds   string `gorm:"column:thresholds;type:text;not null"`
	OnboardDate  string `gorm:"column:onboard_date;type:text;not null"`
	LastSyncDate string `gorm:"column:last_sync_date;type:text"`
	OffboardDate string `gorm:"column:offboard_date;type:text"`
}

func (sourceRecord) TableName() string {
	return "registry"
}

// eventRecord is one live event log row.
type eventRecord struct {
	ID         uint   `gorm:"column:id;primaryKey;autoIncrement"`
	Timestamp  string `gorm:"column:timestamp;type:text;not null"`
	SheetName  string `gorm:"column:sheet_name;type:text;not null;index"`
	ErrorType  string `gorm:"column:error_type;type:text;not null"`
	ErrorMsg   string `gorm:"column:error_message;type:text;not null"`
	Status     string `gorm:"column:status;type:text;not null"`
	Resolution string `gorm:"column:resolution;type:text"`
}

func (eventRecord) TableName() string {
	return "events"
}

// archivedEventRecord carries the event schema in its own table.
type archivedEventRecord struct {
	ID         uint   `gorm:"column:id;primaryKey;autoIncrement"`
	Timestamp  string `gorm:"column:timestamp;type:text;not null"`
	SheetName  string `gorm:"column:sheet_name;type:text;not null;index"`
	ErrorType  string `gorm:"column:error_type;type:text;not null"`
	ErrorMsg   string `gorm:"column:error_message;type:text;not null"`
	Status     string `gorm:"column:status;type:text;not null"`
	Resolution string `gorm:"column:resolution;type:text"`
}

func (archivedEventRecord) TableName() string {
	return "events_archive"
}
