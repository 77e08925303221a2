package dom

import "strings"

const (
	// TagClass marks elements whose text is a tag name.
	TagClass = "tag"
	// ActiveClass marks the currently active navigation container.
	ActiveClass = "active"
)

// ToggleMenu flips the visibility of the element with the given id: hidden
// becomes visible, anything else becomes hidden. Missing elements are ignored.
func ToggleMenu(doc *Document, id string) {
	node := doc.ElementByID(id)
	if node == nil {
		return
	}
	if node.Style("visibility") == "hidden" {
		node.SetStyle("visibility", "visible")
	} else {
		node.SetStyle("visibility", "hidden")
	}
}

// Focus focuses the element with the given id if it exists.
func Focus(doc *Document, id string) {
	if node := doc.ElementByID(id); node != nil {
		node.Focus()
	}
}

// ListenToTags makes every tag element append its name to the target field
// when clicked. The returned disposer detaches all of those listeners.
func ListenToTags(doc *Document, targetID string) Disposer {
	target := doc.ElementByID(targetID)
	if target == nil {
		return func() {}
	}
	var disposers []Disposer
	for _, tag := range doc.ElementsByClass(TagClass) {
		disposers = append(disposers, tag.On("click", func(n *Element) {
			target.SetValue(AppendTag(target.Value(), n.Text()))
		}))
	}
	return func() {
		for _, d := range disposers {
			d()
		}
	}
}

// AppendTag appends tag to a search field value, separated by a single space
// when the field already holds something.
func AppendTag(value, tag string) string {
	value = strings.TrimRight(value, " \t\r\n")
	tag = strings.TrimSpace(tag)
	if len(value) > 0 {
		return value + " " + tag
	}
	return tag
}

// Activate marks the container as active when the element id is present.
func Activate(doc *Document, id, containerID string) {
	if doc.ElementByID(id) == nil {
		return
	}
	if container := doc.ElementByID(containerID); container != nil {
		container.AddClass(ActiveClass)
	}
}
