package image

import (
	"fmt"
	"strings"

	"github.com/hitoshi/hospiblog/internal/model"
)

// styleTemplate は画像種別ごとのスタイル指定。
type styleTemplate struct {
	style    string
	colors   string
	mood     string
	elements string
	camera   string // 写真系のみ
}

var styleTemplates = map[model.ImageType]styleTemplate{
	model.ImageTypeIntro: {
		style:    "Highly realistic natural photo captured with a DSLR camera (not illustration, not digital art, not painting)",
		colors:   "Soft pastel tones (peach, lavender, mint green)",
		mood:     "Warm, calm, empathetic, and reassuring atmosphere",
		elements: "Natural lighting, shallow depth of field, soft focus, peaceful indoor setting, relatable human subjects",
		camera:   "DSLR 50mm lens, realistic lighting, photo-quality textures",
	},
	model.ImageTypeMedical: {
		style:    "Clean, professional medical diagram or 3D-rendered model",
		colors:   "Clinical whites, medical blues, and subtle accent tones",
		mood:     "Professional, trustworthy, educational tone",
		elements: "Clear lines, labeled visuals, accurate anatomy when relevant",
	},
	model.ImageTypeLifestyle: {
		style:    "Realistic lifestyle photo captured with a DSLR camera (not illustration, not digital art)",
		colors:   "Bright, energetic tones (fresh greens, soft blues, gentle yellows)",
		mood:     "Positive, healthy, and encouraging atmosphere",
		elements: "Everyday realistic scenarios, natural body language, approachable environment",
		camera:   "DSLR 35mm lens, daylight, soft shadows",
	},
	model.ImageTypeWarning: {
		style:    "Clean, soft-edged illustration with clear caution symbols",
		colors:   "Soft coral or amber tones for gentle emphasis",
		mood:     "Caring yet cautionary tone, informative without alarming",
		elements: "Clear icons, balanced composition, smooth gradients",
	},
	model.ImageTypeCTA: {
		style:    "Inviting, modern medical environment photo or render",
		colors:   "Cool, professional hospital tones with warm human touches",
		mood:     "Welcoming, professional, and reassuring atmosphere",
		elements: "Modern clinic interior, friendly doctor-patient interaction",
	},
	model.ImageTypeInfographic: {
		style:    "Minimalist, icon-based flat infographic",
		colors:   "2-3 high-contrast colors for readability",
		mood:     "Clear, structured, and educational tone",
		elements: "Simple icons, numbered steps, grid layout, minimal decoration",
	},
}

// BuildPrompt は画像種別のテンプレートから画像生成プロンプトを組み立てる。
// INTROとLIFESTYLEは病院の文脈を入れない。overlayが空なら文字を入れない指示になる。
func BuildPrompt(imageType model.ImageType, department, topic, description, overlay string) string {
	tmpl, ok := styleTemplates[imageType]
	if !ok {
		tmpl = styleTemplates[model.ImageTypeMedical]
	}

	var b strings.Builder
	if !imageType.IsScene() {
		if department == "" {
			department = model.DefaultDepartment
		}
		fmt.Fprintf(&b, "Create an image for a Korean %s hospital blog post about %q.\n\n", department, topic)
	}

	b.WriteString("Visual Content:\n")
	b.WriteString(description)
	b.WriteString("\n\nStyle Guidelines:\n")
	fmt.Fprintf(&b, "- %s\n", tmpl.style)
	fmt.Fprintf(&b, "- Colors: %s\n", tmpl.colors)
	fmt.Fprintf(&b, "- Mood: %s\n", tmpl.mood)
	fmt.Fprintf(&b, "- Key Visual Elements: %s\n", tmpl.elements)
	if tmpl.camera != "" {
		fmt.Fprintf(&b, "- Camera & Realism: %s\n", tmpl.camera)
	}
	b.WriteString("\n")

	if overlay != "" {
		fmt.Fprintf(&b, "Include large, clear Korean text overlay: %q. "+
			"Use a clean sans-serif Korean font with excellent legibility and strong contrast against the background.\n\n", overlay)
	} else {
		b.WriteString("Do not include any text overlay in this image.\n\n")
	}

	b.WriteString("Technical Requirements:\n")
	b.WriteString("- Maintain a warm, patient-friendly, and professional tone\n")
	b.WriteString("- If the image includes people, ensure natural skin tones and realistic proportions\n")
	b.WriteString("- Use soft, natural lighting and avoid any cartoonish or painterly effects\n")
	return b.String()
}
