package bridge

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"
	"google.golang.org/protobuf/types/known/structpb"

	"actornet/actors"
	"actornet/internal/pool"
	"actornet/pcall"
	"actornet/session"
	"actornet/vehicles"
)

var (
	ErrUnknownNative = errors.New("bridge: unknown native")
	ErrBadArgument   = errors.New("bridge: bad argument")
	ErrInvalidEntity = errors.New("bridge: no such entity")
)

var (
	typeOfActor   = reflect.TypeOf((*actors.Actor)(nil))
	typeOfSession = reflect.TypeOf((*session.Session)(nil)).Elem()
	typeOfVehicle = reflect.TypeOf((*vehicles.Vehicle)(nil))
	typeOfVec3    = reflect.TypeOf(mgl32.Vec3{})
	typeOfError   = reflect.TypeOf((*error)(nil)).Elem()
)

func isExported(name string) bool {
	w, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(w)
}

func isArgType(t reflect.Type) bool {
	switch t {
	case typeOfActor, typeOfSession, typeOfVehicle, typeOfVec3:
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String, reflect.Int, reflect.Int32, reflect.Uint32, reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isResultType(t reflect.Type) bool {
	if t.Kind() == reflect.Map {
		return t.Key().Kind() == reflect.String && t.Elem().Kind() == reflect.Interface
	}
	return isArgType(t) && t != typeOfActor && t != typeOfSession && t != typeOfVehicle && t != typeOfVec3
}

// isNativeMethod accepts exported methods whose parameters the bridge can
// decode and whose results it can encode, with an optional trailing error.
func isNativeMethod(method reflect.Method) bool {
	if method.PkgPath != "" || !isExported(method.Name) {
		return false
	}
	mt := method.Type
	for i := 1; i < mt.NumIn(); i++ {
		if !isArgType(mt.In(i)) {
			return false
		}
	}
	for i := 0; i < mt.NumOut(); i++ {
		out := mt.Out(i)
		if out == typeOfError {
			if i != mt.NumOut()-1 {
				return false
			}
			continue
		}
		if !isResultType(out) {
			return false
		}
	}
	return true
}

type native struct {
	method reflect.Method
	params []reflect.Type
}

// Registry dispatches natives by name. Call must run on the tick goroutine.
type Registry struct {
	natives  *Natives
	receiver reflect.Value
	methods  map[string]*native
	log      *logrus.Entry
}

func NewRegistry(n *Natives, log *logrus.Entry) (*Registry, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	r := &Registry{
		natives:  n,
		receiver: reflect.ValueOf(n),
		methods:  make(map[string]*native),
		log:      log.WithField("component", "bridge"),
	}
	typ := r.receiver.Type()
	for m := 0; m < typ.NumMethod(); m++ {
		method := typ.Method(m)
		if !isNativeMethod(method) {
			return nil, fmt.Errorf("bridge: method %s has an unsupported signature", method.Name)
		}
		nt := &native{method: method}
		for i := 1; i < method.Type.NumIn(); i++ {
			nt.params = append(nt.params, method.Type.In(i))
		}
		r.methods[method.Name] = nt
	}
	if len(r.methods) == 0 {
		return nil, errors.New("bridge: type " + typ.String() + " has no exported natives")
	}
	return r, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Has(name string) bool {
	_, ok := r.methods[name]
	return ok
}

// Call resolves args against the native's parameters, invokes it and
// encodes the results: nil for none, the value for one, a list for more.
func (r *Registry) Call(name string, args []*structpb.Value) (*structpb.Value, error) {
	nt, ok := r.methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNative, name)
	}
	if len(args) != len(nt.params) {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrBadArgument, name, len(nt.params), len(args))
	}
	in := make([]reflect.Value, 0, len(args)+1)
	in = append(in, r.receiver)
	for i, t := range nt.params {
		v, err := r.decode(t, args[i])
		if errors.Is(err, ErrInvalidEntity) {
			r.log.WithField("native", name).WithError(err).Debug("[Registry/Call] invalid entity")
			return sentinel(nt.method.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("%s argument %d: %w", name, i+1, err)
		}
		in = append(in, v)
	}

	out, err := pcall.PcallN(r.log, nt.method, in)
	if err != nil {
		return nil, err
	}
	return encodeResults(out)
}

// sentinel is what a native returns when one of its entities does not
// exist: the zero value of every result, so false, 0 and "". Map results
// become null.
func sentinel(mt reflect.Type) (*structpb.Value, error) {
	var out []any
	for i := 0; i < mt.NumOut(); i++ {
		t := mt.Out(i)
		switch {
		case t == typeOfError:
		case t.Kind() == reflect.Map:
			out = append(out, nil)
		default:
			out = append(out, reflect.Zero(t).Interface())
		}
	}
	switch len(out) {
	case 0:
		return structpb.NewNullValue(), nil
	case 1:
		return structpb.NewValue(out[0])
	}
	list, err := structpb.NewList(out)
	if err != nil {
		return nil, err
	}
	return structpb.NewListValue(list), nil
}

func (r *Registry) decode(t reflect.Type, v *structpb.Value) (reflect.Value, error) {
	switch t {
	case typeOfActor:
		h, err := integer(v, 0, math.MaxUint32)
		if err != nil {
			return reflect.Value{}, err
		}
		a, ok := r.natives.Actors.Get(pool.Handle(h))
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: actor %d", ErrInvalidEntity, h)
		}
		return reflect.ValueOf(a), nil
	case typeOfSession:
		id, err := integer(v, 0, math.MaxInt32)
		if err != nil {
			return reflect.Value{}, err
		}
		s, ok := r.natives.Sessions.GetSessionByID(int(id))
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: player %d", ErrInvalidEntity, id)
		}
		return reflect.ValueOf(&s).Elem(), nil
	case typeOfVehicle:
		id, err := integer(v, 0, math.MaxInt32)
		if err != nil {
			return reflect.Value{}, err
		}
		if r.natives.Vehicles == nil {
			return reflect.Value{}, fmt.Errorf("%w: vehicle %d", ErrInvalidEntity, id)
		}
		veh, ok := r.natives.Vehicles.Vehicle(int(id))
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: vehicle %d", ErrInvalidEntity, id)
		}
		return reflect.ValueOf(veh), nil
	case typeOfVec3:
		vec, err := vector(v)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(vec), nil
	}

	switch t.Kind() {
	case reflect.Bool:
		b, ok := v.GetKind().(*structpb.Value_BoolValue)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: want bool", ErrBadArgument)
		}
		return reflect.ValueOf(b.BoolValue), nil
	case reflect.String:
		s, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: want string", ErrBadArgument)
		}
		return reflect.ValueOf(s.StringValue), nil
	case reflect.Int, reflect.Int32:
		n, err := integer(v, math.MinInt32, math.MaxInt32)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(n).Convert(t), nil
	case reflect.Uint32:
		n, err := integer(v, 0, math.MaxUint32)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(n).Convert(t), nil
	case reflect.Float32, reflect.Float64:
		f, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: want number", ErrBadArgument)
		}
		return reflect.ValueOf(f.NumberValue).Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: unsupported parameter type %s", ErrBadArgument, t)
}

func integer(v *structpb.Value, min, max float64) (int64, error) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: want integer", ErrBadArgument)
	}
	f := n.NumberValue
	if f != math.Trunc(f) || f < min || f > max {
		return 0, fmt.Errorf("%w: %v is not an integer in range", ErrBadArgument, f)
	}
	return int64(f), nil
}

// vector accepts [x, y, z] or {"x": .., "y": .., "z": ..}.
func vector(v *structpb.Value) (mgl32.Vec3, error) {
	var out mgl32.Vec3
	switch k := v.GetKind().(type) {
	case *structpb.Value_ListValue:
		items := k.ListValue.GetValues()
		if len(items) != 3 {
			return out, fmt.Errorf("%w: vector needs 3 components", ErrBadArgument)
		}
		for i, item := range items {
			n, ok := item.GetKind().(*structpb.Value_NumberValue)
			if !ok {
				return out, fmt.Errorf("%w: vector component %d", ErrBadArgument, i)
			}
			out[i] = float32(n.NumberValue)
		}
		return out, nil
	case *structpb.Value_StructValue:
		for i, key := range []string{"x", "y", "z"} {
			n, ok := k.StructValue.GetFields()[key].GetKind().(*structpb.Value_NumberValue)
			if !ok {
				return out, fmt.Errorf("%w: vector field %s", ErrBadArgument, key)
			}
			out[i] = float32(n.NumberValue)
		}
		return out, nil
	}
	return out, fmt.Errorf("%w: want vector", ErrBadArgument)
}

func encodeResults(out []reflect.Value) (*structpb.Value, error) {
	switch len(out) {
	case 0:
		return structpb.NewNullValue(), nil
	case 1:
		return structpb.NewValue(out[0].Interface())
	}
	items := make([]any, len(out))
	for i, v := range out {
		items[i] = v.Interface()
	}
	list, err := structpb.NewList(items)
	if err != nil {
		return nil, err
	}
	return structpb.NewListValue(list), nil
}
