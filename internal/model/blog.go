package model

import "time"

// MaxImagesPerPost は1記事あたりの画像スロット数。
const MaxImagesPerPost = 5

// 記事カテゴリ
const (
	CategoryInformational = "정보성"
	CategoryPromotional   = "홍보성"
)

// ImageType は画像指示子の種別。閉じた列挙型として扱う。
type ImageType string

const (
	ImageTypeIntro       ImageType = "INTRO"
	ImageTypeMedical     ImageType = "MEDICAL"
	ImageTypeLifestyle   ImageType = "LIFESTYLE"
	ImageTypeWarning     ImageType = "WARNING"
	ImageTypeCTA         ImageType = "CTA"
	ImageTypeInfographic ImageType = "INFOGRAPHIC"
)

// AllImageTypes は定義済みの画像種別を宣言順に返す。
func AllImageTypes() []ImageType {
	return []ImageType{
		ImageTypeIntro,
		ImageTypeMedical,
		ImageTypeLifestyle,
		ImageTypeWarning,
		ImageTypeCTA,
		ImageTypeInfographic,
	}
}

// ParseImageType は文字列を画像種別に変換する。未知の値はfalseを返す。
func ParseImageType(s string) (ImageType, bool) {
	for _, t := range AllImageTypes() {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// IsScene は病院の文脈やテキストを入れず情景のみを描く種別かを返す。
func (t ImageType) IsScene() bool {
	return t == ImageTypeIntro || t == ImageTypeLifestyle
}

// ImageDirective は本文中の画像指示子 [TYPE | 説明 | text : 文字] を表す。
type ImageDirective struct {
	Type        ImageType
	Description string
	Text        string
	Position    int // 本文中のバイトオフセット
}

// BlogPost は生成されたブログ記事を表す。
type BlogPost struct {
	ID            string
	HospitalID    string // hospitals.id
	Title         string
	Content       string
	Topic         string
	Keywords      []string
	ImageKeywords []string
	Category      *string
	PostedToBlog  bool
	PostedAt      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BlogImage は記事に紐づく生成画像のメタデータを表す。
type BlogImage struct {
	ID           string
	BlogPostID   string
	Keyword      string
	TextContent  string
	StoragePath  string
	PublicURL    string
	Prompt       string
	ImageType    ImageType
	DisplayOrder int
	CreatedAt    time.Time
}
