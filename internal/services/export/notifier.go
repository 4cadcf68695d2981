package export

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/LeonardoBeccarini/pm25_dashboard/internal/model"
	"github.com/LeonardoBeccarini/pm25_dashboard/pkg/rabbitmq"
)

const DefaultTopicTemplate = "event/export/{region}/{date}"

type PublisherFactory func(topic string) rabbitmq.IPublisher

// MQTTNotifier pubblica un ExportEvent per ogni download.
type MQTTNotifier struct {
	makePublisher PublisherFactory
	topicTmpl     string
}

func NewMQTTNotifier(factory PublisherFactory, topicTmpl string) *MQTTNotifier {
	if strings.TrimSpace(topicTmpl) == "" {
		topicTmpl = DefaultTopicTemplate
	}
	return &MQTTNotifier{makePublisher: factory, topicTmpl: topicTmpl}
}

func (n *MQTTNotifier) NotifyExport(ctx context.Context, evt model.ExportEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal export event: %w", err)
	}
	topic := FormatTopic(n.topicTmpl, evt.Region, evt.Date)
	// QoS 1: l'evento di export non deve andare perso
	return n.makePublisher(topic).PublishMessageQos(ctx, 1, false, string(b))
}

// FormatTopic fills {region} and {date}; the region is lower-cased.
func FormatTopic(tmpl, region, date string) string {
	return strings.NewReplacer("{region}", strings.ToLower(region), "{date}", date).Replace(tmpl)
}
