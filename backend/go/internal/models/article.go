package models

// Article 对应 articles 表中的一篇文献。
type Article struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	Title            *string `gorm:"type:text" json:"title"`
	PublicationTitle *string `gorm:"type:text" json:"publication_title"`
	DOI              *string `gorm:"column:doi;size:255" json:"doi"`
	Authors          *string `gorm:"type:text" json:"authors"`
	PublicationYear  *int    `json:"publication_year"`
	URL              *string `gorm:"column:url;type:text" json:"url"`
	ContentType      *string `gorm:"size:64" json:"content_type"`
	Abstract         *string `gorm:"type:text" json:"abstract"`
	Introduction     *string `gorm:"type:text" json:"introduction"`
	Conclusion       *string `gorm:"type:text" json:"conclusion"`
	Number           *int    `json:"number"`
}

func (Article) TableName() string {
	return "articles"
}
