package normalize

import "github.com/iconidentify/tumblrembed/internal/domain"

// Classified is the flattened content partitioned by block kind. Each slice
// keeps the relative order of the flattened sequence.
type Classified struct {
	Text  []domain.TextBlock
	Image []domain.ImageBlock
	Video []domain.VideoBlock
	Audio []domain.AudioBlock
	// Lead is the kind of the first image or video block, or "" if there is none.
	Lead domain.BlockKind
}

// Classify partitions blocks by kind. Blocks of kinds this service does not
// render are dropped.
func Classify(blocks []domain.ContentBlock) Classified {
	var c Classified
	for _, block := range blocks {
		switch b := block.(type) {
		case domain.TextBlock:
			c.Text = append(c.Text, b)
		case domain.ImageBlock:
			c.Image = append(c.Image, b)
			if c.Lead == "" {
				c.Lead = domain.BlockKindImage
			}
		case domain.VideoBlock:
			c.Video = append(c.Video, b)
			if c.Lead == "" {
				c.Lead = domain.BlockKindVideo
			}
		case domain.AudioBlock:
			c.Audio = append(c.Audio, b)
		case domain.OtherBlock:
		}
	}
	return c
}

// ThemeColor returns the first declared dominant color of the first image
// block that declares any.
func (c Classified) ThemeColor() (string, bool) {
	for _, img := range c.Image {
		if len(img.Colors) > 0 && img.Colors[0] != "" {
			return img.Colors[0], true
		}
	}
	return "", false
}
