package models

// ServiceOffering is a bookable service listing (catering, beautician, pooja,
// online document services, and so on). Price is nullable for quote-only
// offerings.
type ServiceOffering struct {
	ID                int      `gorm:"column:id;primaryKey;autoIncrement"`
	Name              string   `gorm:"column:name;index;not null"`
	Category          string   `gorm:"column:category;index"`
	Description       string   `gorm:"column:description;type:text"`
	Price             *float64 `gorm:"column:price"`
	RequiredDocuments *string  `gorm:"column:required_documents;type:text"`
}

func (ServiceOffering) TableName() string { return "services" }
