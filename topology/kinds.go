package topology

import (
	"fmt"
	"sort"

	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/flow/classify"
	"github.com/sarchlab/pktflow/flow/filter"
	"github.com/sarchlab/pktflow/flow/queue"
	"github.com/sarchlab/pktflow/flow/relay"
	"github.com/sarchlab/pktflow/flow/sched"
	"github.com/sarchlab/pktflow/flow/server"
	"github.com/sarchlab/pktflow/flow/source"
	"github.com/sarchlab/pktflow/sim/randstream"
	"github.com/sarchlab/pktflow/sim/timing"
)

// A Factory creates an element of one kind from its configuration.
type Factory func(ctx *BuildContext, cfg ElementConfig) (flow.Element, error)

// BuildContext is what factories can see while a network is built.
type BuildContext struct {
	Engine timing.EventScheduler

	elements map[string]flow.Element
}

// Element returns an element built earlier.
func (c *BuildContext) Element(name string) (flow.Element, bool) {
	e, ok := c.elements[name]
	return e, ok
}

var kinds = map[string]Factory{}

// MustRegisterKind registers the factory of an element kind. It panics if
// the kind is taken.
func MustRegisterKind(kind string, f Factory) {
	if _, ok := kinds[kind]; ok {
		panic(fmt.Sprintf("element kind %s is already registered", kind))
	}

	kinds[kind] = f
}

// KindNames lists the registered element kinds in alphabetical order.
func KindNames() []string {
	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func init() {
	MustRegisterKind("Buffer", buildBuffer)
	MustRegisterKind("Queue", buildQueue)
	MustRegisterKind("CompoundQueue", buildCompoundQueue)

	MustRegisterKind("Filter", buildFilter)
	MustRegisterKind("ThresholdDropper", buildThresholdDropper)
	MustRegisterKind("RedDropper", buildRedDropper)

	MustRegisterKind("Scheduler", buildScheduler)
	MustRegisterKind("PriorityScheduler", buildPriorityScheduler)
	MustRegisterKind("WrrScheduler", buildWrrScheduler)
	MustRegisterKind("MarkovScheduler", buildMarkovScheduler)

	MustRegisterKind("Classifier", buildClassifier)
	MustRegisterKind("MarkovClassifier", buildMarkovClassifier)

	MustRegisterKind("Multiplexer", buildMultiplexer)
	MustRegisterKind("Demultiplexer", buildDemultiplexer)
	MustRegisterKind("Delayer", buildDelayer)
	MustRegisterKind("Duplicator", buildDuplicator)

	MustRegisterKind("Server", buildServer)
	MustRegisterKind("TokenServer", buildTokenServer)

	MustRegisterKind("ActiveSource", buildActiveSource)
	MustRegisterKind("PassiveSource", buildPassiveSource)
	MustRegisterKind("ActiveSink", buildActiveSink)
	MustRegisterKind("PassiveSink", buildPassiveSink)
}

// params collects the first error of a series of parameter reads, so that
// factories can read all their parameters before checking.
type params struct {
	p   flow.Params
	err error
}

func (r *params) int(key string, def int) int {
	v, err := r.p.Int(key, def)
	r.keep(err)

	return v
}

func (r *params) int64(key string, def int64) int64 {
	v, err := r.p.Int64(key, def)
	r.keep(err)

	return v
}

func (r *params) float(key string, def float64) float64 {
	v, err := r.p.Float(key, def)
	r.keep(err)

	return v
}

func (r *params) string(key string, def string) string {
	v, err := r.p.String(key, def)
	r.keep(err)

	return v
}

func (r *params) floats(key string) []float64 {
	v, err := r.p.Floats(key)
	r.keep(err)

	return v
}

func (r *params) ints(key string) []int {
	v, err := r.p.Ints(key)
	r.keep(err)

	return v
}

func (r *params) matrix(key string) [][]float64 {
	v, err := r.p.Matrix(key)
	r.keep(err)

	return v
}

// sub returns a nested parameter map, such as the params of a policy.
func (r *params) sub(key string) flow.Params {
	v, ok := r.p[key]
	if !ok {
		return flow.Params{}
	}

	m, ok := v.(map[string]interface{})
	if !ok {
		r.keep(fmt.Errorf("parameter %q: %v is not a map", key, v))
		return flow.Params{}
	}

	return flow.Params(m)
}

func (r *params) keep(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}

func (r *params) check(cfg ElementConfig) error {
	if r.err == nil {
		return nil
	}

	return flow.WrapConfigurationError(cfg.Name, r.err, "bad %s parameters",
		cfg.Kind)
}

func buildBuffer(_ *BuildContext, cfg ElementConfig) (flow.Element, error) {
	p := &params{p: cfg.Params}
	frameCap := p.int("frameCapacity", flow.Unbounded)
	dataCap := p.int64("dataCapacity", flow.Unbounded)
	policyName := p.string("policy", "TailDrop")
	policyParams := p.sub("policyParams")

	if err := p.check(cfg); err != nil {
		return nil, err
	}

	policy, err := queue.NewRoomPolicyFromName(policyName, policyParams)
	if err != nil {
		return nil, flow.WrapConfigurationError(cfg.Name, err, "bad policy")
	}

	return queue.MakeBufferBuilder().
		WithFrameCapacity(frameCap).
		WithDataCapacity(dataCap).
		WithPolicy(policy).
		Build(cfg.Name), nil
}

func buildQueue(ctx *BuildContext, cfg ElementConfig) (flow.Element, error) {
	p := &params{p: cfg.Params}
	frameCap := p.int("frameCapacity", flow.Unbounded)
	dataCap := p.int64("dataCapacity", flow.Unbounded)
	comparatorName := p.string("comparator", "")
	dropperName := p.string("dropper", "")
	bufferName := p.string("buffer", "")
	comparatorParams := p.sub("comparatorParams")
	dropperParams := p.sub("dropperParams")

	if err := p.check(cfg); err != nil {
		return nil, err
	}

	b := queue.MakeBuilder().
		WithEngine(ctx.Engine).
		WithFrameCapacity(frameCap).
		WithDataCapacity(dataCap)

	if comparatorName != "" {
		c, err := queue.NewComparatorFromName(comparatorName, comparatorParams)
		if err != nil {
			return nil, flow.WrapConfigurationError(cfg.Name, err,
				"bad comparator")
		}

		b = b.WithComparator(c)
	}

	if dropperName != "" {
		d, err := queue.NewDropperFromName(dropperName, dropperParams)
		if err != nil {
			return nil, flow.WrapConfigurationError(cfg.Name, err,
				"bad dropper")
		}

		b = b.WithDropper(d)
	}

	if bufferName != "" {
		e, ok := ctx.Element(bufferName)
		if !ok {
			return nil, flow.NewConfigurationError(cfg.Name,
				"buffer %s does not exist", bufferName)
		}

		buffer, ok := e.(*queue.Buffer)
		if !ok {
			return nil, flow.NewConfigurationError(cfg.Name,
				"%s is not a buffer", bufferName)
		}

		b = b.WithBuffer(buffer)
	}

	return b.Build(cfg.Name), nil
}

func buildCompoundQueue(
	_ *BuildContext,
	cfg ElementConfig,
) (flow.Element, error) {
	p := &params{p: cfg.Params}
	frameCap := p.int("frameCapacity", flow.Unbounded)
	dataCap := p.int64("dataCapacity", flow.Unbounded)

	if err := p.check(cfg); err != nil {
		return nil, err
	}

	return queue.MakeCompoundQueueBuilder().
		WithFrameCapacity(frameCap).
		WithDataCapacity(dataCap).
		Build(cfg.Name), nil
}

func buildFilter(_ *BuildContext, cfg ElementConfig) (flow.Element, error) {
	p := &params{p: cfg.Params}
	predicateName := p.string("predicate", "All")
	predicateParams := p.sub("predicateParams")

	if err := p.check(cfg); err != nil {
		return nil, err
	}

	pred, err := filter.NewPredicateFromName(predicateName, predicateParams)
	if err != nil {
		return nil, flow.WrapConfigurationError(cfg.Name, err, "bad predicate")
	}

	return filter.NewFilter(cfg.Name, pred), nil
}

func buildThresholdDropper(
	_ *BuildContext,
	cfg ElementConfig,
) (flow.Element, error) {
	p := &params{p: cfg.Params}
	n := p.int("numGates", 1)
	frameCap := p.int("frameCapacity", flow.Unbounded)
	dataCap := p.int64("dataCapacity", flow.Unbounded)

	if err := p.check(cfg); err != nil {
		return nil, err
	}

	if err := mustBePositive(cfg, "numGates", n); err != nil {
		return nil, err
	}

	return filter.NewThresholdDropper(cfg.Name, n, frameCap, dataCap), nil
}

func buildRedDropper(
	ctx *BuildContext,
	cfg ElementConfig,
) (flow.Element, error) {
	p := &params{p: cfg.Params}
	wq := p.float("wq", 0.002)
	minth := p.floats("minth")
	maxth := p.floats("maxth")
	maxp := p.floats("maxp")
	pkrate := p.floats("pkrate")

	if err := p.check(cfg); err != nil {
		return nil, err
	}

	n := len(minth)
	if n == 0 || len(maxth) != n || len(maxp) != n ||
		(pkrate != nil && len(pkrate) != n) {
		return nil, flow.NewConfigurationError(cfg.Name,
			"minth, maxth, maxp and pkrate must have one value per gate")
	}

	gates := make([]filter.REDGateParams, n)
	for i := range gates {
		gates[i] = filter.REDGateParams{
			MinThreshold:   minth[i],
			MaxThreshold:   maxth[i],
			MaxProbability: maxp[i],
		}

		if pkrate != nil {
			gates[i].PacketRate = pkrate[i]
		}
	}

	return element(filter.MakeREDBuilder().
		WithEngine(ctx.Engine).
		WithWeight(wq).
		WithGates(gates...).
		Build(cfg.Name))
}

func buildScheduler(_ *BuildContext, cfg ElementConfig) (flow.Element, error) {
	p := &params{p: cfg.Params}
	n := p.int("numInputs", 1)
	functionName := p.string("function", "Priority")
	functionParams := p.sub("functionParams")

	if err := p.check(cfg); err != nil {
		return nil, err
	}

	if err := mustBePositive(cfg, "numInputs", n); err != nil {
		return nil, err
	}

	f, err := sched.NewFunctionFromName(functionName, functionParams)
	if err != nil {
		return nil, flow.WrapConfigurationError(cfg.Name, err,
			"bad scheduling function")
	}

	return sched.MakeBuilder().
		WithNumInputs(n).
		WithFunction(f).
		Build(cfg.Name), nil
}

func buildPriorityScheduler(
	_ *BuildContext,
	cfg ElementConfig,
) (flow.Element, error) {
	p := &params{p: cfg.Params}
	n := p.int("numInputs", 1)

	if err := p.check(cfg); err != nil {
		return nil, err
	}

	if err := mustBePositive(cfg, "numInputs", n); err != nil {
		return nil, err
	}

	return sched.NewPriorityScheduler(cfg.Name, n), nil
}

func buildWrrScheduler(
	_ *BuildContext,
	cfg ElementConfig,
) (flow.Element, error) {
	p := &params{p: cfg.Params}
	weights := p.ints("weights")

	if err := p.check(cfg); err != nil {
		return nil, err
	}

	return element(sched.NewWrrScheduler(cfg.Name, weights))
}

type markovParams struct {
	transitions   [][]float64
	waitIntervals []timing.VTimeInSec
	initialState  int
}

func readMarkovParams(cfg ElementConfig) (markovParams, error) {
	p := &params{p: cfg.Params}
	mp := markovParams{
		transitions:   p.matrix("transitionProbabilities"),
		waitIntervals: p.floats("waitIntervals"),
		initialState:  p.int("initialState", 0),
	}

	return mp, p.check(cfg)
}

func buildMarkovScheduler(
	ctx *BuildContext,
	cfg ElementConfig,
) (flow.Element, error) {
	mp, err := readMarkovParams(cfg)
	if err != nil {
		return nil, err
	}

	return element(sched.MakeMarkovBuilder().
		WithEngine(ctx.Engine).
		WithTransitions(mp.transitions).
		WithWaitIntervals(mp.waitIntervals).
		WithInitialState(mp.initialState).
		WithRandSource(randstream.New(cfg.Name)).
		Build(cfg.Name))
}

func buildClassifier(
	_ *BuildContext,
	cfg ElementConfig,
) (flow.Element, error) {
	p := &params{p: cfg.Params}
	n := p.int("numOutputs", 1)
	functionName := p.string("function", "ByPriority")
	functionParams := p.sub("functionParams")

	if err := p.check(cfg); err != nil {
		return nil, err
	}

	if err := mustBePositive(cfg, "numOutputs", n); err != nil {
		return nil, err
	}

	f, err := classify.NewFunctionFromName(functionName, functionParams)
	if err != nil {
		return nil, flow.WrapConfigurationError(cfg.Name, err,
			"bad classifier function")
	}

	return classify.MakeBuilder().
		WithNumOutputs(n).
		WithFunction(f).
		Build(cfg.Name), nil
}

func buildMarkovClassifier(
	ctx *BuildContext,
	cfg ElementConfig,
) (flow.Element, error) {
	mp, err := readMarkovParams(cfg)
	if err != nil {
		return nil, err
	}

	return element(classify.MakeMarkovBuilder().
		WithEngine(ctx.Engine).
		WithTransitions(mp.transitions).
		WithWaitIntervals(mp.waitIntervals).
		WithInitialState(mp.initialState).
		WithRandSource(randstream.New(cfg.Name)).
		Build(cfg.Name))
}

func buildMultiplexer(
	_ *BuildContext,
	cfg ElementConfig,
) (flow.Element, error) {
	p := &params{p: cfg.Params}
	n := p.int("numInputs", 1)

	if err := p.check(cfg); err != nil {
		return nil, err
	}

	if err := mustBePositive(cfg, "numInputs", n); err != nil {
		return nil, err
	}

	return relay.NewMultiplexer(cfg.Name, n), nil
}

func buildDemultiplexer(
	_ *BuildContext,
	cfg ElementConfig,
) (flow.Element, error) {
	p := &params{p: cfg.Params}
	n := p.int("numOutputs", 1)

	if err := p.check(cfg); err != nil {
		return nil, err
	}

	if err := mustBePositive(cfg, "numOutputs", n); err != nil {
		return nil, err
	}

	return relay.NewDemultiplexer(cfg.Name, n), nil
}

func buildDelayer(ctx *BuildContext, cfg ElementConfig) (flow.Element, error) {
	p := &params{p: cfg.Params}
	delay := p.float("delay", 0)

	if err := p.check(cfg); err != nil {
		return nil, err
	}

	if delay < 0 {
		return nil, flow.NewConfigurationError(cfg.Name,
			"delay %v is negative", delay)
	}

	return relay.NewDelayer(cfg.Name, ctx.Engine, delay), nil
}

func buildDuplicator(
	_ *BuildContext,
	cfg ElementConfig,
) (flow.Element, error) {
	p := &params{p: cfg.Params}
	counterName := p.string("numDuplicates", "Fixed")
	counterParams := p.sub("numDuplicatesParams")

	if err := p.check(cfg); err != nil {
		return nil, err
	}

	c, err := relay.NewDuplicateCounterFromName(counterName, counterParams)
	if err != nil {
		return nil, flow.WrapConfigurationError(cfg.Name, err,
			"bad duplicate counter")
	}

	return relay.NewDuplicator(cfg.Name, c), nil
}

func buildServer(ctx *BuildContext, cfg ElementConfig) (flow.Element, error) {
	p := &params{p: cfg.Params}
	t := p.float("processingTime", 0)
	bps := p.float("processingBitrate", 0)

	if err := p.check(cfg); err != nil {
		return nil, err
	}

	if t < 0 || bps < 0 {
		return nil, flow.NewConfigurationError(cfg.Name,
			"processing time and bitrate must not be negative")
	}

	return server.MakeBuilder().
		WithEngine(ctx.Engine).
		WithProcessingTime(t).
		WithProcessingBitrate(bps).
		Build(cfg.Name), nil
}

func buildTokenServer(
	ctx *BuildContext,
	cfg ElementConfig,
) (flow.Element, error) {
	p := &params{p: cfg.Params}
	interval := p.float("tokenProductionInterval", 1)
	initial := p.int("initialNumTokens", 0)
	maxTokens := p.int("maxNumTokens", flow.Unbounded)
	perPacket := p.float("tokenConsumptionPerPacket", 1)
	perBit := p.float("tokenConsumptionPerBit", 0)

	if err := p.check(cfg); err != nil {
		return nil, err
	}

	return element(server.MakeTokenBuilder().
		WithEngine(ctx.Engine).
		WithProductionInterval(interval).
		WithInitialNumTokens(initial).
		WithMaxNumTokens(maxTokens).
		WithConsumptionPerPacket(perPacket).
		WithConsumptionPerBit(perBit).
		Build(cfg.Name))
}

// readInterval reads the interval parameter, a number of seconds, with the
// distribution parameter switching between a constant and an exponential
// interval of that mean.
func readInterval(p *params, cfg ElementConfig) (source.Interval, error) {
	mean := p.float("interval", 0)
	distribution := p.string("distribution", "constant")

	if err := p.check(cfg); err != nil {
		return nil, err
	}

	if mean < 0 {
		return nil, flow.NewConfigurationError(cfg.Name,
			"interval %v is negative", mean)
	}

	switch distribution {
	case "constant":
		return source.Constant(mean), nil
	case "exponential":
		return source.Exponential{
			Mean: mean,
			Rand: randstream.New(cfg.Name),
		}, nil
	default:
		return nil, flow.NewConfigurationError(cfg.Name,
			"unknown interval distribution %q", distribution)
	}
}

func sourceBuilder(
	ctx *BuildContext,
	cfg ElementConfig,
) (source.SourceBuilder, error) {
	p := &params{p: cfg.Params}
	format := p.string("packetNameFormat", source.DefaultNameFormat)
	length := p.int64("packetLength", 8)
	priority := p.int("userPriority", 0)

	interval, err := readInterval(p, cfg)
	if err != nil {
		return source.SourceBuilder{}, err
	}

	return source.MakeSourceBuilder().
		WithEngine(ctx.Engine).
		WithNameFormat(format).
		WithPacketLength(length).
		WithUserPriority(priority).
		WithInterval(interval), nil
}

func buildActiveSource(
	ctx *BuildContext,
	cfg ElementConfig,
) (flow.Element, error) {
	b, err := sourceBuilder(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return element(b.BuildActive(cfg.Name))
}

func buildPassiveSource(
	ctx *BuildContext,
	cfg ElementConfig,
) (flow.Element, error) {
	b, err := sourceBuilder(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return element(b.BuildPassive(cfg.Name))
}

func sinkBuilder(
	ctx *BuildContext,
	cfg ElementConfig,
) (source.SinkBuilder, error) {
	interval, err := readInterval(&params{p: cfg.Params}, cfg)
	if err != nil {
		return source.SinkBuilder{}, err
	}

	return source.MakeSinkBuilder().
		WithEngine(ctx.Engine).
		WithInterval(interval), nil
}

func buildActiveSink(
	ctx *BuildContext,
	cfg ElementConfig,
) (flow.Element, error) {
	b, err := sinkBuilder(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return b.BuildActive(cfg.Name), nil
}

func buildPassiveSink(
	ctx *BuildContext,
	cfg ElementConfig,
) (flow.Element, error) {
	b, err := sinkBuilder(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return b.BuildPassive(cfg.Name), nil
}

func mustBePositive(cfg ElementConfig, key string, n int) error {
	if n > 0 {
		return nil
	}

	return flow.NewConfigurationError(cfg.Name, "%s must be positive, got %d",
		key, n)
}

// element returns a nil element when the build failed.
func element[T flow.Element](e T, err error) (flow.Element, error) {
	if err != nil {
		return nil, err
	}

	return e, nil
}
