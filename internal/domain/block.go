package domain

import "encoding/json"

// BlockKind identifies the variant of a ContentBlock.
type BlockKind string

const (
	BlockKindText  BlockKind = "text"
	BlockKindImage BlockKind = "image"
	BlockKindVideo BlockKind = "video"
	BlockKindAudio BlockKind = "audio"
	BlockKindOther BlockKind = "other"
)

// ContentBlock is a single NPF content block. The set of implementations is
// closed: TextBlock, ImageBlock, VideoBlock, AudioBlock and OtherBlock.
type ContentBlock interface {
	Kind() BlockKind
	contentBlock()
}

// TextBlock holds the raw text of a text block.
type TextBlock struct {
	Text string `json:"text"`
}

// ImageBlock holds the resolution candidates of an image, in upstream order.
type ImageBlock struct {
	Media []MediaObject `json:"media"`
	// Colors are the dominant colors (hex, no leading #) in declared order c0, c1, ...
	Colors []string `json:"colors,omitempty"`
}

// VideoBlock is a video with a direct URL, an embedded media object, or both.
type VideoBlock struct {
	URL   string       `json:"url,omitempty"`
	Media *MediaObject `json:"media,omitempty"`
}

// AudioBlock is an audio clip with a direct URL, an embedded media object, or both.
type AudioBlock struct {
	URL   string       `json:"url,omitempty"`
	Media *MediaObject `json:"media,omitempty"`
}

// OtherBlock is any block type this service does not render (link, poll, ...).
type OtherBlock struct {
	Type string `json:"upstream_type"`
}

// MediaObject is one rendition of a media item.
type MediaObject struct {
	URL                   string `json:"url"`
	Width                 int    `json:"width,omitempty"`
	Height                int    `json:"height,omitempty"`
	HasOriginalDimensions bool   `json:"has_original_dimensions,omitempty"`
}

func (TextBlock) Kind() BlockKind  { return BlockKindText }
func (ImageBlock) Kind() BlockKind { return BlockKindImage }
func (VideoBlock) Kind() BlockKind { return BlockKindVideo }
func (AudioBlock) Kind() BlockKind { return BlockKindAudio }
func (OtherBlock) Kind() BlockKind { return BlockKindOther }

func (TextBlock) contentBlock()  {}
func (ImageBlock) contentBlock() {}
func (VideoBlock) contentBlock() {}
func (AudioBlock) contentBlock() {}
func (OtherBlock) contentBlock() {}

// MarshalJSON tags the block with its kind so the normalized post stays self-describing.
func (b TextBlock) MarshalJSON() ([]byte, error) {
	type plain TextBlock
	return json.Marshal(struct {
		Type BlockKind `json:"type"`
		plain
	}{b.Kind(), plain(b)})
}

func (b ImageBlock) MarshalJSON() ([]byte, error) {
	type plain ImageBlock
	return json.Marshal(struct {
		Type BlockKind `json:"type"`
		plain
	}{b.Kind(), plain(b)})
}

func (b VideoBlock) MarshalJSON() ([]byte, error) {
	type plain VideoBlock
	return json.Marshal(struct {
		Type BlockKind `json:"type"`
		plain
	}{b.Kind(), plain(b)})
}

func (b AudioBlock) MarshalJSON() ([]byte, error) {
	type plain AudioBlock
	return json.Marshal(struct {
		Type BlockKind `json:"type"`
		plain
	}{b.Kind(), plain(b)})
}

func (b OtherBlock) MarshalJSON() ([]byte, error) {
	type plain OtherBlock
	return json.Marshal(struct {
		Type BlockKind `json:"type"`
		plain
	}{b.Kind(), plain(b)})
}
