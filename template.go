package v8shim

// ObjectTemplate describes objects to stamp out with NewInstance: a set of
// accessors and a set of values with attributes. The template owns the
// registrations; instances dispatch their accessors to it, so replacing an
// accessor on the template affects existing instances too.
type ObjectTemplate struct {
	ctx        *Context
	accessors  *AccessorStorage
	attributes *AttributeStorage
}

// NewObjectTemplate creates an empty template.
func (ctx *Context) NewObjectTemplate() *ObjectTemplate {
	ctx.check("NewObjectTemplate")
	return &ObjectTemplate{
		ctx:        ctx,
		accessors:  NewAccessorStorage(),
		attributes: NewAttributeStorage(),
	}
}

// SetAccessor registers an accessor for every future instance.
func (t *ObjectTemplate) SetAccessor(name string, getter AccessorGetter, setter AccessorSetter, data Value, attrs PropertyAttribute) {
	t.ctx.check("ObjectTemplate.SetAccessor")
	t.attributes.Remove(name)
	t.accessors.AddAccessor(name, getter, setter, data, attrs)
}

// Set registers a data property for every future instance.
func (t *ObjectTemplate) Set(name string, value Value, attrs PropertyAttribute) {
	t.ctx.check("ObjectTemplate.Set")
	value.native("ObjectTemplate.Set")
	t.accessors.Remove(name)
	t.attributes.AddAttribute(name, value, attrs)
}

// Accessors exposes the template's accessor table.
func (t *ObjectTemplate) Accessors() *AccessorStorage { return t.accessors }

// Attributes exposes the template's attribute table.
func (t *ObjectTemplate) Attributes() *AttributeStorage { return t.attributes }

// NewInstance creates an object with every registered property. It returns
// the empty handle if defining one of them threw.
func (t *ObjectTemplate) NewInstance() Object {
	ctx := t.ctx
	ctx.check("ObjectTemplate.NewInstance")
	obj := ctx.NewObject()
	for name, e := range t.attributes.All() {
		if !obj.ForceSet(name, e.Value.Local(), e.Attributes) {
			return Object{}
		}
	}
	native := obj.object("ObjectTemplate.NewInstance")
	for name := range t.accessors.All() {
		if !ctx.defineAccessor(native, t.accessors, name) {
			return Object{}
		}
	}
	return obj
}

// Dispose releases the data handles held by the template. Instances keep
// their data properties; their accessors read as undefined afterwards.
func (t *ObjectTemplate) Dispose() {
	t.accessors.Dispose()
	t.attributes.Dispose()
}
