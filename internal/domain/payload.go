package domain

import "encoding/json"

// Fixed loader policy for every bulk load.
const (
	LoadModeNew                       = "NEW"
	LoadFailOnError                   = "TRUE"
	LoadParallelism                   = "HIGH"
	LoadUpdateSingleCardinalityValues = "FALSE"
	LoadQueueRequest                  = "TRUE"
)

// ParserConfiguration tells the loader how to resolve relative IRIs and
// which named graph receives the triples.
type ParserConfiguration struct {
	BaseURI       string `json:"baseUri"`
	NamedGraphURI string `json:"namedGraphUri"`
}

// LoaderPayload is the body of a Neptune bulk-load request. Field order is
// the serialization order.
//
// Each source file is loaded into its own named graph, the IRI of which is
// the source URI itself, so that provenance of every triple is kept.
type LoaderPayload struct {
	Source                            string              `json:"source"`
	Format                            Format              `json:"format"`
	IAMRoleArn                        string              `json:"iamRoleArn"`
	Mode                              string              `json:"mode"`
	Region                            string              `json:"region"`
	FailOnError                       string              `json:"failOnError"`
	Parallelism                       string              `json:"parallelism"`
	ParserConfiguration               ParserConfiguration `json:"parserConfiguration"`
	UpdateSingleCardinalityProperties string              `json:"updateSingleCardinalityProperties"`
	QueueRequest                      string              `json:"queueRequest"`
	Dependencies                      []string            `json:"dependencies"`
}

// NewLoaderPayload validates the request and maps it onto the loader payload.
func NewLoaderPayload(req *LoadRequest) (LoaderPayload, error) {
	if err := req.Validate(); err != nil {
		return LoaderPayload{}, err
	}
	return LoaderPayload{
		Source:      req.SourceURI,
		Format:      req.Format,
		IAMRoleArn:  req.NeptuneS3IAMRoleArn,
		Mode:        LoadModeNew,
		Region:      req.RegionCode,
		FailOnError: LoadFailOnError,
		Parallelism: LoadParallelism,
		ParserConfiguration: ParserConfiguration{
			BaseURI:       req.IDBaseInternal + "/",
			NamedGraphURI: req.SourceURI,
		},
		UpdateSingleCardinalityProperties: LoadUpdateSingleCardinalityValues,
		QueueRequest:                      LoadQueueRequest,
		Dependencies:                      []string{},
	}, nil
}

// Marshal renders the payload as indented JSON.
func (p LoaderPayload) Marshal() ([]byte, error) {
	if p.Dependencies == nil {
		p.Dependencies = []string{}
	}
	return json.MarshalIndent(p, "", "    ")
}
